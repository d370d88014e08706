package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFetchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [REGION...]",
		Short: "Download and verify data files into the cache",
		Long: `Ensure every manifest entry is present in the cache with the declared
checksum. Files already cached and intact are not downloaded again.

With region arguments only files for those regions, plus files shared by
all regions, are fetched. Unknown regions are ignored.`,
		Example: `  tally fetch
  tally fetch NSW VIC
  tally fetch --mirror s3://election-data?region=ap-southeast-2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFetch(cmd, args)
		},
	}
}

func (a *app) runFetch(cmd *cobra.Command, requested []string) error {
	ctx := cmd.Context()

	m, err := a.loadManifest()
	if err != nil {
		return err
	}
	wanted, err := a.wanted(requested)
	if err != nil {
		return err
	}

	f, cleanup, err := a.newFetcher(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	a.logger.Info("fetching data",
		zap.String("manifest", a.cfg.Manifest),
		zap.String("cache_dir", a.cfg.CacheDir),
		zap.Int("entries", len(m)),
	)
	if err := f.Ensure(ctx, m, wanted); err != nil {
		return err
	}
	a.progress.PrintSummary()
	return nil
}
