package cache

import (
	"context"
	"fmt"

	"gocloud.dev/blob"

	"github.com/ligustah/tally/pkg/manifest"
)

// ValidationResult contains the results of validating a cache against a
// manifest.
type ValidationResult struct {
	Valid      bool     // true if every wanted entry is present and verified
	Entries    int      // number of wanted entries checked
	Trusted    int      // entries present without a checksum to compare
	Missing    int      // entries whose final file is absent
	Mismatched int      // entries whose digest differs from the manifest
	Errors     []string // detailed messages
}

// Validate checks that every wanted manifest entry is present in the bucket
// with the declared checksum. It never touches the network.
//
// Missing files and checksum mismatches are reported in the result with
// Valid=false; only storage failures and context cancellation are returned
// as errors.
func Validate(ctx context.Context, bucket *blob.Bucket, m manifest.Manifest, wanted manifest.Groups) (*ValidationResult, error) {
	result := &ValidationResult{
		Valid:  true,
		Errors: make([]string, 0),
	}

	for _, name := range m.Names() {
		entry := m[name]
		if !wanted.Wanted(entry) {
			continue
		}
		result.Entries++

		ok, actual, err := Matches(ctx, bucket, name, entry.SHA256)
		if err != nil {
			return nil, err
		}
		switch {
		case ok && entry.SHA256 == "":
			result.Trusted++
		case ok:
		case actual == "":
			result.Valid = false
			result.Missing++
			result.Errors = append(result.Errors, fmt.Sprintf("%s missing", name))
		default:
			result.Valid = false
			result.Mismatched++
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s checksum mismatch: expected %s, got %s", name, entry.SHA256, actual))
		}
	}

	return result, nil
}
