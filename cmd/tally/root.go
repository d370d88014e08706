package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/ligustah/tally/internal/config"
	"github.com/ligustah/tally/internal/fetch"
	tallyhttp "github.com/ligustah/tally/internal/http"
	"github.com/ligustah/tally/internal/progress"
	"github.com/ligustah/tally/internal/regions"
	"github.com/ligustah/tally/pkg/cache"
	"github.com/ligustah/tally/pkg/manifest"
)

// flags holds raw command-line values. Zero values leave the
// configuration untouched.
type flags struct {
	config           string
	manifest         string
	regions          string
	cacheDir         string
	mirror           string
	verbose          bool
	requireChecksums bool
	program          string
	programTimeout   time.Duration
}

func (f flags) overrides() config.Config {
	cfg := config.Config{
		Manifest:         f.manifest,
		Regions:          f.regions,
		CacheDir:         f.cacheDir,
		Mirror:           f.mirror,
		Verbose:          f.verbose,
		RequireChecksums: f.requireChecksums,
	}
	cfg.Program.Command = strings.Fields(f.program)
	cfg.Program.Timeout = f.programTimeout
	return cfg
}

// app carries state shared by the subcommands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	flags    flags
	cfg      config.Config
	logger   *zap.Logger
	progress *progress.Reporter

	// started is set once flags and configuration have been accepted.
	started bool
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tally",
		Short: "Fetch verified election data and count each region",
		Long: `tally downloads the data files listed in a manifest into a local cache,
verifies them against their SHA-256 checksums, extracts zipped entries and
then runs the election counting program once per region.

Configuration is read from defaults, an optional YAML file (--config),
TALLY_* environment variables and flags, in increasing precedence.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return &usageError{errors.New("a command is required")}
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.config, "config", "", "YAML configuration file")
	pf.StringVar(&a.flags.manifest, "manifest", "", "data source manifest (default data_sources.json)")
	pf.StringVar(&a.flags.regions, "regions", "", "region table (default states.json)")
	pf.StringVar(&a.flags.cacheDir, "cache-dir", "", "cache directory (default data)")
	pf.StringVar(&a.flags.mirror, "mirror", "", "optional mirror bucket URL (s3://, gs://, file://, mem://)")
	pf.BoolVar(&a.flags.requireChecksums, "require-checksums", false, "reject manifest entries without checksums")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newFetchCommand(a),
		newRunCommand(a),
		newVerifyCommand(a),
	)
	return root
}

// setup resolves configuration and builds the logger for the invoked command.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if a.flags.config != "" {
		var err error
		if cfg, err = config.LoadFromFile(a.flags.config); err != nil {
			return &usageError{err}
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return &usageError{err}
	}
	cfg = cfg.Merge(a.flags.overrides())
	if err := cfg.Validate(); err != nil {
		return &usageError{err}
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	a.logger = logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("command", cmd.Name()),
	)
	a.progress = progress.NewReporter(progress.Options{Output: a.stdout})
	a.started = true
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

func (a *app) loadManifest() (manifest.Manifest, error) {
	m, err := manifest.Load(a.cfg.Manifest, a.cfg.RequireChecksums)
	if err != nil {
		return nil, &usageError{err}
	}
	return m, nil
}

func (a *app) loadRegions() (regions.Table, error) {
	t, err := regions.Load(a.cfg.Regions)
	if err != nil {
		return nil, &usageError{err}
	}
	return t, nil
}

// wanted returns the groups selected by requested region identifiers, or
// nil (everything) when none are given.
func (a *app) wanted(requested []string) (manifest.Groups, error) {
	if len(requested) == 0 {
		return nil, nil
	}
	table, err := a.loadRegions()
	if err != nil {
		return nil, err
	}
	if unknown := table.Unknown(requested); len(unknown) > 0 {
		a.logger.Debug("ignoring unknown regions", zap.Strings("regions", unknown))
	}
	return table.Filter(requested).Groups(), nil
}

// openCache opens the cache directory. The caller must close the bucket.
func (a *app) openCache() (*blob.Bucket, error) {
	bucket, err := cache.OpenDir(a.cfg.CacheDir)
	if err != nil {
		return nil, &storageError{err}
	}
	return bucket, nil
}

// newFetcher builds a fetcher for the configured cache and mirror. The
// returned function releases both buckets.
func (a *app) newFetcher(ctx context.Context) (*fetch.Fetcher, func(), error) {
	cacheBucket, err := a.openCache()
	if err != nil {
		return nil, nil, err
	}

	var mirror *blob.Bucket
	if a.cfg.Mirror != "" {
		mirror, err = blob.OpenBucket(ctx, a.cfg.Mirror)
		if err != nil {
			cacheBucket.Close()
			return nil, nil, &storageError{fmt.Errorf("open mirror %s: %w", a.cfg.Mirror, err)}
		}
		a.logger.Info("using mirror", zap.String("mirror", a.cfg.Mirror))
	}

	httpOpts := tallyhttp.DefaultOptions()
	httpOpts.Timeout = a.cfg.HTTP.Timeout
	httpOpts.MaxSize = a.cfg.HTTP.MaxSize
	httpOpts.RetryAttempts = a.cfg.HTTP.Retry.Attempts
	httpOpts.RetryBackoff = a.cfg.HTTP.Retry.Backoff
	httpOpts.RetryMaxBackoff = a.cfg.HTTP.Retry.MaxBackoff

	f := fetch.New(cacheBucket, fetch.Options{
		HTTPOptions:      httpOpts,
		Mirror:           mirror,
		RequireChecksums: a.cfg.RequireChecksums,
		Progress:         a.progress,
		Logger:           a.logger,
	})

	cleanup := func() {
		if mirror != nil {
			mirror.Close()
		}
		cacheBucket.Close()
	}
	return f, cleanup, nil
}
