package fetch

import (
	"errors"
	"fmt"
)

// ErrInnerFileMissing is wrapped by ExtractionError when the archive does not
// contain the declared inner file.
var ErrInnerFileMissing = errors.New("inner file not found in archive")

// ErrUnsafePath is wrapped by ExtractionError when an archive member would be
// written outside the cache.
var ErrUnsafePath = errors.New("archive member has an unsafe path")

// ChecksumKind identifies which artifact failed verification.
type ChecksumKind string

const (
	// KindFile is a plain downloaded file.
	KindFile ChecksumKind = "file"
	// KindArchive is a zip archive before extraction.
	KindArchive ChecksumKind = "archive"
	// KindExtracted is the file extracted from an archive.
	KindExtracted ChecksumKind = "extracted file"
)

// ChecksumError is returned when an artifact's SHA-256 differs from the
// manifest.
type ChecksumError struct {
	Name     string       // manifest entry
	Key      string       // cache key that was checked
	Kind     ChecksumKind // which artifact
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("fetch: %s: %s checksum mismatch for %s: expected %s, got %s",
		e.Name, e.Kind, e.Key, e.Expected, e.Actual)
}

// DownloadError is returned when a file cannot be retrieved.
type DownloadError struct {
	Name string
	URL  string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("fetch: %s: download %s: %v", e.Name, e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ExtractionError is returned when an archive cannot be unpacked.
type ExtractionError struct {
	Name    string
	Archive string
	Inner   string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("fetch: %s: extract %s from %s: %v", e.Name, e.Inner, e.Archive, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
