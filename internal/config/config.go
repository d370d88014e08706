package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ligustah/tally/internal/progress"
)

// Config defines configuration for the tally CLI.
type Config struct {
	Manifest         string        `yaml:"manifest"`
	Regions          string        `yaml:"regions"`
	CacheDir         string        `yaml:"cache_dir"`
	Mirror           string        `yaml:"mirror"`
	RequireChecksums bool          `yaml:"require_checksums"`
	Verbose          bool          `yaml:"verbose"`
	HTTP             HTTPConfig    `yaml:"http"`
	Program          ProgramConfig `yaml:"program"`
}

// HTTPConfig defines download behavior.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	MaxSize int64         `yaml:"max_size"`
	Retry   RetryConfig   `yaml:"retry"`
}

// RetryConfig defines retry behavior.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// ProgramConfig defines how the tallying program is invoked.
type ProgramConfig struct {
	Command    []string      `yaml:"command"`
	Candidates string        `yaml:"candidates"`
	Ordering   string        `yaml:"ordering"`
	RegionFile string        `yaml:"region_file"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Manifest: "data_sources.json",
		Regions:  "states.json",
		CacheDir: "data",
		HTTP: HTTPConfig{
			Retry: RetryConfig{
				Attempts:   0, // fail fast
				Backoff:    time.Second,
				MaxBackoff: 30 * time.Second,
			},
		},
		Program: ProgramConfig{
			Command:    []string{"cargo", "run", "--release", "--bin", "election2016", "--"},
			Candidates: "candidate_ids.csv",
			Ordering:   "candidate_ordering.csv",
			RegionFile: "{region}.csv",
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations and sizes.
type yamlConfig struct {
	Manifest         string            `yaml:"manifest"`
	Regions          string            `yaml:"regions"`
	CacheDir         string            `yaml:"cache_dir"`
	Mirror           string            `yaml:"mirror"`
	RequireChecksums bool              `yaml:"require_checksums"`
	Verbose          bool              `yaml:"verbose"`
	HTTP             yamlHTTPConfig    `yaml:"http"`
	Program          yamlProgramConfig `yaml:"program"`
}

type yamlHTTPConfig struct {
	Timeout string          `yaml:"timeout"`
	MaxSize string          `yaml:"max_size"`
	Retry   yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

type yamlProgramConfig struct {
	Command    []string `yaml:"command"`
	Candidates string   `yaml:"candidates"`
	Ordering   string   `yaml:"ordering"`
	RegionFile string   `yaml:"region_file"`
	Timeout    string   `yaml:"timeout"`
}

// LoadFromFile loads configuration from a YAML file on top of Default.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.Manifest != "" {
		cfg.Manifest = yc.Manifest
	}
	if yc.Regions != "" {
		cfg.Regions = yc.Regions
	}
	if yc.CacheDir != "" {
		cfg.CacheDir = yc.CacheDir
	}
	cfg.Mirror = yc.Mirror
	cfg.RequireChecksums = yc.RequireChecksums
	cfg.Verbose = yc.Verbose

	if yc.HTTP.Timeout != "" {
		d, err := time.ParseDuration(yc.HTTP.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse http.timeout: %w", err)
		}
		cfg.HTTP.Timeout = d
	}
	if yc.HTTP.MaxSize != "" {
		size, err := progress.ParseBytes(yc.HTTP.MaxSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse http.max_size: %w", err)
		}
		cfg.HTTP.MaxSize = size
	}
	if yc.HTTP.Retry.Attempts != 0 {
		cfg.HTTP.Retry.Attempts = yc.HTTP.Retry.Attempts
	}
	if yc.HTTP.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.HTTP.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse http.retry.backoff: %w", err)
		}
		cfg.HTTP.Retry.Backoff = d
	}
	if yc.HTTP.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.HTTP.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse http.retry.max_backoff: %w", err)
		}
		cfg.HTTP.Retry.MaxBackoff = d
	}

	if len(yc.Program.Command) > 0 {
		cfg.Program.Command = yc.Program.Command
	}
	if yc.Program.Candidates != "" {
		cfg.Program.Candidates = yc.Program.Candidates
	}
	if yc.Program.Ordering != "" {
		cfg.Program.Ordering = yc.Program.Ordering
	}
	if yc.Program.RegionFile != "" {
		cfg.Program.RegionFile = yc.Program.RegionFile
	}
	if yc.Program.Timeout != "" {
		d, err := time.ParseDuration(yc.Program.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse program.timeout: %w", err)
		}
		cfg.Program.Timeout = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the TALLY_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("TALLY_MANIFEST"); v != "" {
		c.Manifest = v
	}
	if v := os.Getenv("TALLY_REGIONS"); v != "" {
		c.Regions = v
	}
	if v := os.Getenv("TALLY_CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("TALLY_MIRROR"); v != "" {
		c.Mirror = v
	}
	if v := os.Getenv("TALLY_REQUIRE_CHECKSUMS"); v != "" {
		c.RequireChecksums = v == "true" || v == "1"
	}
	if v := os.Getenv("TALLY_VERBOSE"); v != "" {
		c.Verbose = v == "true" || v == "1"
	}
	if v := os.Getenv("TALLY_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse TALLY_HTTP_TIMEOUT: %w", err)
		}
		c.HTTP.Timeout = d
	}
	if v := os.Getenv("TALLY_HTTP_MAX_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse TALLY_HTTP_MAX_SIZE: %w", err)
		}
		c.HTTP.MaxSize = size
	}
	if v := os.Getenv("TALLY_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse TALLY_RETRY_ATTEMPTS: %w", err)
		}
		c.HTTP.Retry.Attempts = n
	}
	if v := os.Getenv("TALLY_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse TALLY_RETRY_BACKOFF: %w", err)
		}
		c.HTTP.Retry.Backoff = d
	}
	if v := os.Getenv("TALLY_RETRY_MAX_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse TALLY_RETRY_MAX_BACKOFF: %w", err)
		}
		c.HTTP.Retry.MaxBackoff = d
	}
	if v := os.Getenv("TALLY_PROGRAM"); v != "" {
		c.Program.Command = strings.Fields(v)
	}
	if v := os.Getenv("TALLY_PROGRAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse TALLY_PROGRAM_TIMEOUT: %w", err)
		}
		c.Program.Timeout = d
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Manifest == "" {
		return errors.New("config: manifest is required")
	}
	if c.Regions == "" {
		return errors.New("config: regions is required")
	}
	if c.CacheDir == "" {
		return errors.New("config: cache_dir is required")
	}
	if c.HTTP.Timeout < 0 {
		return errors.New("config: http.timeout must not be negative")
	}
	if c.HTTP.MaxSize < 0 {
		return errors.New("config: http.max_size must not be negative")
	}
	if c.HTTP.Retry.Attempts < 0 {
		return errors.New("config: http.retry.attempts must not be negative")
	}
	if c.HTTP.Retry.Backoff < 0 {
		return errors.New("config: http.retry.backoff must not be negative")
	}
	if c.HTTP.Retry.MaxBackoff < 0 {
		return errors.New("config: http.retry.max_backoff must not be negative")
	}
	if len(c.Program.Command) == 0 || c.Program.Command[0] == "" {
		return errors.New("config: program.command is required")
	}
	if c.Program.Candidates == "" || c.Program.Ordering == "" {
		return errors.New("config: program.candidates and program.ordering are required")
	}
	if !strings.Contains(c.Program.RegionFile, "{region}") {
		return errors.New("config: program.region_file must contain {region}")
	}
	if c.Program.Timeout < 0 {
		return errors.New("config: program.timeout must not be negative")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.Manifest != "" {
		c.Manifest = override.Manifest
	}
	if override.Regions != "" {
		c.Regions = override.Regions
	}
	if override.CacheDir != "" {
		c.CacheDir = override.CacheDir
	}
	if override.Mirror != "" {
		c.Mirror = override.Mirror
	}
	if override.RequireChecksums {
		c.RequireChecksums = override.RequireChecksums
	}
	if override.Verbose {
		c.Verbose = override.Verbose
	}
	if override.HTTP.Timeout != 0 {
		c.HTTP.Timeout = override.HTTP.Timeout
	}
	if override.HTTP.MaxSize != 0 {
		c.HTTP.MaxSize = override.HTTP.MaxSize
	}
	if override.HTTP.Retry.Attempts != 0 {
		c.HTTP.Retry.Attempts = override.HTTP.Retry.Attempts
	}
	if override.HTTP.Retry.Backoff != 0 {
		c.HTTP.Retry.Backoff = override.HTTP.Retry.Backoff
	}
	if override.HTTP.Retry.MaxBackoff != 0 {
		c.HTTP.Retry.MaxBackoff = override.HTTP.Retry.MaxBackoff
	}
	if len(override.Program.Command) > 0 {
		c.Program.Command = override.Program.Command
	}
	if override.Program.Candidates != "" {
		c.Program.Candidates = override.Program.Candidates
	}
	if override.Program.Ordering != "" {
		c.Program.Ordering = override.Program.Ordering
	}
	if override.Program.RegionFile != "" {
		c.Program.RegionFile = override.Program.RegionFile
	}
	if override.Program.Timeout != 0 {
		c.Program.Timeout = override.Program.Timeout
	}
	return c
}
