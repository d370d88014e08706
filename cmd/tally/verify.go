package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ligustah/tally/pkg/cache"
)

// newVerifyCommand checks the cache against the manifest without touching
// the network.
func newVerifyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [REGION...]",
		Short: "Check cached files against the manifest checksums",
		Long: `Report missing and corrupt cache entries. Nothing is downloaded.

Exits with status 7 when any wanted entry is missing or does not match its
checksum.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd, args)
		},
	}
}

func (a *app) runVerify(cmd *cobra.Command, requested []string) error {
	ctx := cmd.Context()

	m, err := a.loadManifest()
	if err != nil {
		return err
	}
	wanted, err := a.wanted(requested)
	if err != nil {
		return err
	}

	bucket, err := a.openCache()
	if err != nil {
		return err
	}
	defer bucket.Close()

	result, err := cache.Validate(ctx, bucket, m, wanted)
	if err != nil {
		return &storageError{err}
	}

	out := a.stdout
	fmt.Fprintf(out, "Cache: %s\n", a.cfg.CacheDir)
	fmt.Fprintf(out, "Entries: %d\n", result.Entries)
	if result.Trusted > 0 {
		fmt.Fprintf(out, "Without checksum: %d\n", result.Trusted)
	}

	if result.Valid {
		fmt.Fprintf(out, "Status: %s\n", color.GreenString("VALID"))
		return nil
	}

	fmt.Fprintf(out, "Status: %s\n", color.RedString("INVALID"))
	fmt.Fprintf(out, "Missing: %d\n", result.Missing)
	fmt.Fprintf(out, "Mismatched: %d\n", result.Mismatched)

	if len(result.Errors) > 0 {
		fmt.Fprintln(out, "\nErrors:")
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}
	}

	return errValidationFailed
}
