package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gocloud.dev/gcerrors"

	"github.com/ligustah/tally/internal/fetch"
	"github.com/ligustah/tally/internal/orchestrator"
)

// errValidationFailed is returned by verify when the cache is incomplete.
// The report has already been printed.
var errValidationFailed = errors.New("cache validation failed")

// usageError marks bad flags, arguments, configuration or input files.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// storageError marks failures opening the cache or mirror bucket.
type storageError struct{ err error }

func (e *storageError) Error() string { return e.err.Error() }
func (e *storageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var (
		usage    *usageError
		storage  *storageError
		download *fetch.DownloadError
		checksum *fetch.ChecksumError
		extract  *fetch.ExtractionError
		program  *orchestrator.ProgramError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errValidationFailed):
		return ExitValidationFailed
	case errors.As(err, &usage):
		return ExitInvalidArgs
	case errors.As(err, &download):
		return ExitDownloadFailed
	case errors.As(err, &checksum), errors.As(err, &extract):
		return ExitChecksumFailed
	case errors.As(err, &program):
		return ExitProgramFailed
	case errors.As(err, &storage):
		return ExitStorageError
	}
	if code := gcerrors.Code(err); code != gcerrors.OK && code != gcerrors.Unknown {
		return ExitStorageError
	}
	return ExitGeneralError
}

func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprint(w, "Error: ")
	fmt.Fprintln(w, err)
}
