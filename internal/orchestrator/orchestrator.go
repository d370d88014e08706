package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ligustah/tally/internal/progress"
	"github.com/ligustah/tally/internal/regions"
	"github.com/ligustah/tally/pkg/manifest"
)

// RegionPlaceholder is replaced by the region identifier in
// Program.RegionFile.
const RegionPlaceholder = "{region}"

// Fetcher makes manifest entries available in the cache.
type Fetcher interface {
	Ensure(ctx context.Context, m manifest.Manifest, wanted manifest.Groups) error
}

// Program describes how the tallying program is invoked.
type Program struct {
	// Command is the executable followed by any fixed leading arguments.
	Command []string

	// CandidatesFile is the cache-relative candidate identifiers file.
	CandidatesFile string

	// OrderingFile is the cache-relative candidate ordering file.
	OrderingFile string

	// RegionFile is the cache-relative per-region data file, with
	// RegionPlaceholder standing in for the region identifier.
	RegionFile string
}

// Args returns the positional arguments for one region.
func (p Program) Args(cacheDir, region string, seats int) []string {
	return []string{
		filepath.Join(cacheDir, p.CandidatesFile),
		filepath.Join(cacheDir, p.OrderingFile),
		filepath.Join(cacheDir, strings.ReplaceAll(p.RegionFile, RegionPlaceholder, region)),
		region,
		strconv.Itoa(seats),
	}
}

// Options configures an Orchestrator.
type Options struct {
	Manifest manifest.Manifest
	Regions  regions.Table
	Fetcher  Fetcher
	Program  Program

	// CacheDir is the directory the program reads its inputs from.
	CacheDir string

	// Runner executes the program. Default: ExecRunner writing to the
	// process's stdout and stderr.
	Runner Runner

	Progress *progress.Reporter
	Logger   *zap.Logger
}

// Orchestrator fetches the data for a set of regions and runs the tallying
// program once per region.
type Orchestrator struct {
	opts   Options
	logger *zap.Logger
}

// New creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("orchestrator: fetcher is required")
	}
	if len(opts.Program.Command) == 0 {
		return nil, errors.New("orchestrator: program command is required")
	}
	if opts.Runner == nil {
		opts.Runner = &ExecRunner{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{opts: opts, logger: logger}, nil
}

// Run fetches the data required by the requested regions and runs the
// program for each of them in ascending order. No requested regions means
// every region. Requested regions missing from the table are ignored.
//
// A failing program run stops the loop and is returned as *ProgramError.
func (o *Orchestrator) Run(ctx context.Context, requested []string) error {
	selected := o.opts.Regions.Filter(requested)
	if unknown := o.opts.Regions.Unknown(requested); len(unknown) > 0 {
		o.logger.Debug("ignoring unknown regions", zap.Strings("regions", unknown))
	}

	if err := o.opts.Fetcher.Ensure(ctx, o.opts.Manifest, selected.Groups()); err != nil {
		return err
	}
	o.opts.Progress.PrintSummary()

	for _, region := range selected.Sorted() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.runRegion(ctx, region); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) runRegion(ctx context.Context, region regions.Region) error {
	args := append(append([]string{}, o.opts.Program.Command[1:]...),
		o.opts.Program.Args(o.opts.CacheDir, region.ID, region.Seats)...)

	log := o.logger.With(zap.String("region", region.ID), zap.Int("seats", region.Seats))
	log.Info("starting program", zap.String("command", o.opts.Program.Command[0]), zap.Strings("args", args))
	o.opts.Progress.RegionStarted(region.ID)

	if err := o.opts.Runner.Run(ctx, o.opts.Program.Command[0], args); err != nil {
		log.Error("program failed", zap.Error(err))
		return &ProgramError{Region: region.ID, ExitCode: exitCode(err), Err: err}
	}

	o.opts.Progress.RegionCompleted(region.ID)
	log.Info("program completed")
	return nil
}

// ProgramError is returned when the program fails for a region.
type ProgramError struct {
	Region   string
	ExitCode int // -1 when the program did not exit normally
	Err      error
}

func (e *ProgramError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("orchestrator: %s: program exited with status %d", e.Region, e.ExitCode)
	}
	return fmt.Sprintf("orchestrator: %s: %v", e.Region, e.Err)
}

func (e *ProgramError) Unwrap() error { return e.Err }
