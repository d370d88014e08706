// Command tally fetches verified election data and runs the tallying program
// once per region.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitInvalidArgs      = 2
	ExitDownloadFailed   = 3
	ExitChecksumFailed   = 4
	ExitStorageError     = 5
	ExitProgramFailed    = 6
	ExitValidationFailed = 7
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err == nil {
		return ExitSuccess
	}

	code := exitCode(err)
	if !a.started {
		code = ExitInvalidArgs
	}
	if code != ExitValidationFailed {
		printError(stderr, err)
	}
	return code
}
