package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Manifest != "data_sources.json" {
		t.Errorf("expected default manifest data_sources.json, got %q", cfg.Manifest)
	}
	if cfg.Regions != "states.json" {
		t.Errorf("expected default regions states.json, got %q", cfg.Regions)
	}
	if cfg.CacheDir != "data" {
		t.Errorf("expected default cache dir data, got %q", cfg.CacheDir)
	}
	if cfg.HTTP.Retry.Attempts != 0 {
		t.Errorf("expected default retry attempts 0, got %d", cfg.HTTP.Retry.Attempts)
	}
	if cfg.RequireChecksums {
		t.Error("expected checksums to be optional by default")
	}
	want := []string{"cargo", "run", "--release", "--bin", "election2016", "--"}
	if !reflect.DeepEqual(cfg.Program.Command, want) {
		t.Errorf("expected default command %v, got %v", want, cfg.Program.Command)
	}
	if cfg.Program.RegionFile != "{region}.csv" {
		t.Errorf("expected default region file {region}.csv, got %q", cfg.Program.RegionFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
manifest: sources.yaml
cache_dir: /var/cache/tally
mirror: mem://
require_checksums: true
http:
  timeout: 10m
  max_size: 2GB
  retry:
    attempts: 3
    backoff: 2s
    max_backoff: 60s
program:
  command: [./election2016]
  timeout: 1h
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Manifest != "sources.yaml" {
		t.Errorf("expected manifest sources.yaml, got %q", cfg.Manifest)
	}
	if cfg.Regions != "states.json" {
		t.Errorf("expected regions to keep default, got %q", cfg.Regions)
	}
	if cfg.CacheDir != "/var/cache/tally" {
		t.Errorf("expected cache dir /var/cache/tally, got %q", cfg.CacheDir)
	}
	if cfg.Mirror != "mem://" {
		t.Errorf("expected mirror mem://, got %q", cfg.Mirror)
	}
	if !cfg.RequireChecksums {
		t.Error("expected require_checksums true")
	}
	if cfg.HTTP.Timeout != 10*time.Minute {
		t.Errorf("expected http timeout 10m, got %v", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.MaxSize != 2*1024*1024*1024 {
		t.Errorf("expected max size 2GB, got %d", cfg.HTTP.MaxSize)
	}
	if cfg.HTTP.Retry.Attempts != 3 {
		t.Errorf("expected retry attempts 3, got %d", cfg.HTTP.Retry.Attempts)
	}
	if cfg.HTTP.Retry.Backoff != 2*time.Second {
		t.Errorf("expected retry backoff 2s, got %v", cfg.HTTP.Retry.Backoff)
	}
	if cfg.HTTP.Retry.MaxBackoff != 60*time.Second {
		t.Errorf("expected retry max backoff 60s, got %v", cfg.HTTP.Retry.MaxBackoff)
	}
	if !reflect.DeepEqual(cfg.Program.Command, []string{"./election2016"}) {
		t.Errorf("expected command [./election2016], got %v", cfg.Program.Command)
	}
	if cfg.Program.Candidates != "candidate_ids.csv" {
		t.Errorf("expected candidates to keep default, got %q", cfg.Program.Candidates)
	}
	if cfg.Program.Timeout != time.Hour {
		t.Errorf("expected program timeout 1h, got %v", cfg.Program.Timeout)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := map[string]string{
		"syntax":   "http: [",
		"timeout":  "http:\n  timeout: soon\n",
		"max_size": "http:\n  max_size: lots\n",
		"program":  "program:\n  timeout: -\n",
	}
	for name, content := range bad {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("write config file: %v", err)
			}
			if _, err := LoadFromFile(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TALLY_MANIFEST", "m.json")
	t.Setenv("TALLY_REGIONS", "r.json")
	t.Setenv("TALLY_CACHE_DIR", "/tmp/tally")
	t.Setenv("TALLY_MIRROR", "s3://bucket")
	t.Setenv("TALLY_REQUIRE_CHECKSUMS", "1")
	t.Setenv("TALLY_HTTP_TIMEOUT", "30s")
	t.Setenv("TALLY_HTTP_MAX_SIZE", "512MB")
	t.Setenv("TALLY_RETRY_ATTEMPTS", "2")
	t.Setenv("TALLY_RETRY_BACKOFF", "500ms")
	t.Setenv("TALLY_RETRY_MAX_BACKOFF", "10s")
	t.Setenv("TALLY_PROGRAM", "./bin/election2016 --quiet")
	t.Setenv("TALLY_PROGRAM_TIMEOUT", "5m")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Manifest != "m.json" || cfg.Regions != "r.json" || cfg.CacheDir != "/tmp/tally" {
		t.Errorf("unexpected paths: %q %q %q", cfg.Manifest, cfg.Regions, cfg.CacheDir)
	}
	if cfg.Mirror != "s3://bucket" {
		t.Errorf("expected mirror s3://bucket, got %q", cfg.Mirror)
	}
	if !cfg.RequireChecksums {
		t.Error("expected require checksums true")
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("expected http timeout 30s, got %v", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.MaxSize != 512*1024*1024 {
		t.Errorf("expected max size 512MB, got %d", cfg.HTTP.MaxSize)
	}
	if cfg.HTTP.Retry.Attempts != 2 {
		t.Errorf("expected retry attempts 2, got %d", cfg.HTTP.Retry.Attempts)
	}
	if cfg.HTTP.Retry.Backoff != 500*time.Millisecond {
		t.Errorf("expected retry backoff 500ms, got %v", cfg.HTTP.Retry.Backoff)
	}
	if cfg.HTTP.Retry.MaxBackoff != 10*time.Second {
		t.Errorf("expected retry max backoff 10s, got %v", cfg.HTTP.Retry.MaxBackoff)
	}
	if !reflect.DeepEqual(cfg.Program.Command, []string{"./bin/election2016", "--quiet"}) {
		t.Errorf("unexpected command %v", cfg.Program.Command)
	}
	if cfg.Program.Timeout != 5*time.Minute {
		t.Errorf("expected program timeout 5m, got %v", cfg.Program.Timeout)
	}
}

func TestLoadFromEnvInvalid(t *testing.T) {
	t.Setenv("TALLY_RETRY_ATTEMPTS", "many")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err == nil {
		t.Error("expected error for invalid TALLY_RETRY_ATTEMPTS")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid config", modify: func(c *Config) {}},
		{name: "missing manifest", modify: func(c *Config) { c.Manifest = "" }, wantErr: true},
		{name: "missing regions", modify: func(c *Config) { c.Regions = "" }, wantErr: true},
		{name: "missing cache dir", modify: func(c *Config) { c.CacheDir = "" }, wantErr: true},
		{name: "negative timeout", modify: func(c *Config) { c.HTTP.Timeout = -time.Second }, wantErr: true},
		{name: "negative retries", modify: func(c *Config) { c.HTTP.Retry.Attempts = -1 }, wantErr: true},
		{name: "negative backoff", modify: func(c *Config) { c.HTTP.Retry.Backoff = -time.Second }, wantErr: true},
		{name: "negative max backoff", modify: func(c *Config) { c.HTTP.Retry.MaxBackoff = -time.Second }, wantErr: true},
		{name: "empty command", modify: func(c *Config) { c.Program.Command = nil }, wantErr: true},
		{name: "blank command", modify: func(c *Config) { c.Program.Command = []string{""} }, wantErr: true},
		{name: "missing candidates", modify: func(c *Config) { c.Program.Candidates = "" }, wantErr: true},
		{name: "region file without placeholder", modify: func(c *Config) { c.Program.RegionFile = "NSW.csv" }, wantErr: true},
		{name: "negative program timeout", modify: func(c *Config) { c.Program.Timeout = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	override := Config{
		CacheDir:         "cache",
		Mirror:           "gs://mirror",
		RequireChecksums: true,
		HTTP: HTTPConfig{
			Retry: RetryConfig{Attempts: 4},
		},
		Program: ProgramConfig{
			Command: []string{"./election2016"},
		},
	}

	merged := base.Merge(override)

	if merged.Manifest != "data_sources.json" {
		t.Errorf("expected manifest from base, got %q", merged.Manifest)
	}
	if merged.CacheDir != "cache" {
		t.Errorf("expected cache dir from override, got %q", merged.CacheDir)
	}
	if merged.Mirror != "gs://mirror" {
		t.Errorf("expected mirror from override, got %q", merged.Mirror)
	}
	if !merged.RequireChecksums {
		t.Error("expected require checksums from override")
	}
	if merged.HTTP.Retry.Attempts != 4 {
		t.Errorf("expected retry attempts 4, got %d", merged.HTTP.Retry.Attempts)
	}
	if merged.HTTP.Retry.Backoff != time.Second {
		t.Errorf("expected retry backoff from base, got %v", merged.HTTP.Retry.Backoff)
	}
	if !reflect.DeepEqual(merged.Program.Command, []string{"./election2016"}) {
		t.Errorf("expected command from override, got %v", merged.Program.Command)
	}
	if merged.Program.Ordering != "candidate_ordering.csv" {
		t.Errorf("expected ordering from base, got %q", merged.Program.Ordering)
	}
	if base.CacheDir != "data" {
		t.Error("Merge must not modify the receiver")
	}
}
