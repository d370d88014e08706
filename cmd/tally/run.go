package main

import (
	"github.com/spf13/cobra"

	"github.com/ligustah/tally/internal/orchestrator"
)

func newRunCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [REGION...]",
		Short: "Fetch data and run the election program for each region",
		Long: `Fetch the data for the selected regions, then invoke the election
program once per region in ascending order:

  <program> <candidates> <ordering> <region file> <region> <seats>

Without arguments every region in the region table is run. Unknown regions
are ignored. A failing program run stops the remaining regions.`,
		Example: `  tally run
  tally run NSW TAS
  tally run --program ./target/release/election2016 --program-timeout 1h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runElections(cmd, args)
		},
	}

	cmd.Flags().StringVar(&a.flags.program, "program", "", "program command line (default cargo run --release --bin election2016 --)")
	cmd.Flags().DurationVar(&a.flags.programTimeout, "program-timeout", 0, "limit for each program run (0 = none)")
	return cmd
}

func (a *app) runElections(cmd *cobra.Command, requested []string) error {
	ctx := cmd.Context()

	m, err := a.loadManifest()
	if err != nil {
		return err
	}
	table, err := a.loadRegions()
	if err != nil {
		return err
	}

	f, cleanup, err := a.newFetcher(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	o, err := orchestrator.New(orchestrator.Options{
		Manifest: m,
		Regions:  table,
		Fetcher:  f,
		Program: orchestrator.Program{
			Command:        a.cfg.Program.Command,
			CandidatesFile: a.cfg.Program.Candidates,
			OrderingFile:   a.cfg.Program.Ordering,
			RegionFile:     a.cfg.Program.RegionFile,
		},
		CacheDir: a.cfg.CacheDir,
		Runner: &orchestrator.ExecRunner{
			Stdout:  a.stdout,
			Stderr:  a.stderr,
			Timeout: a.cfg.Program.Timeout,
		},
		Progress: a.progress,
		Logger:   a.logger,
	})
	if err != nil {
		return &usageError{err}
	}

	return o.Run(ctx, requested)
}
