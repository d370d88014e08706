package manifest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ArchiveSuffix is appended to an entry name to form the cache key of its
// archive.
const ArchiveSuffix = ".zip"

// Entry describes a single remote file.
type Entry struct {
	URL             string `yaml:"url"`
	SHA256          string `yaml:"sha256"`
	Zipped          bool   `yaml:"zipped"`
	ZipSHA256       string `yaml:"zip-sha256"`
	InnerFile       string `yaml:"inner-file"`
	State           string `yaml:"state"`
	RequireChecksum bool   `yaml:"require-checksum"`
}

// Manifest maps cache file names to entries.
type Manifest map[string]Entry

// Groups is a set of wanted group tags. A nil Groups wants everything.
type Groups map[string]bool

// NewGroups builds a Groups set from a list of tags.
func NewGroups(tags ...string) Groups {
	g := make(Groups, len(tags))
	for _, t := range tags {
		g[t] = true
	}
	return g
}

// Wanted reports whether e is selected by g.
func (g Groups) Wanted(e Entry) bool {
	if e.State == "" || g == nil {
		return true
	}
	return g[e.State]
}

// ArchiveName returns the cache key of the archive for the entry named name.
func ArchiveName(name string) string {
	return name + ArchiveSuffix
}

// Load reads and validates a manifest from a YAML or JSON file.
func Load(filename string, requireAll bool) (Manifest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", filename, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", filename, err)
	}
	if err := m.Validate(requireAll); err != nil {
		return nil, err
	}
	return m, nil
}

// Parse decodes a manifest document without validating it.
func Parse(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m == nil {
		m = Manifest{}
	}
	for name, e := range m {
		e.SHA256 = normalizeDigest(e.SHA256)
		e.ZipSHA256 = normalizeDigest(e.ZipSHA256)
		m[name] = e
	}
	return m, nil
}

// Names returns entry names in ascending order.
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every entry. When requireAll is set, entries without
// checksums are rejected as if they carried require-checksum.
func (m Manifest) Validate(requireAll bool) error {
	var errs []error
	for _, name := range m.Names() {
		if err := m[name].validate(name, requireAll); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e Entry) validate(name string, requireAll bool) error {
	if err := ValidateKey(name); err != nil {
		return err
	}
	if e.URL == "" {
		return fmt.Errorf("manifest: %s: url is required", name)
	}
	if e.Zipped && e.InnerFile == "" {
		return fmt.Errorf("manifest: %s: inner-file is required for zipped entries", name)
	}
	if !e.Zipped && (e.InnerFile != "" || e.ZipSHA256 != "") {
		return fmt.Errorf("manifest: %s: inner-file and zip-sha256 only apply to zipped entries", name)
	}
	if err := checkDigest(e.SHA256); err != nil {
		return fmt.Errorf("manifest: %s: sha256: %w", name, err)
	}
	if err := checkDigest(e.ZipSHA256); err != nil {
		return fmt.Errorf("manifest: %s: zip-sha256: %w", name, err)
	}
	if e.RequireChecksum || requireAll {
		if e.SHA256 == "" {
			return fmt.Errorf("manifest: %s: sha256 is required", name)
		}
		if e.Zipped && e.ZipSHA256 == "" {
			return fmt.Errorf("manifest: %s: zip-sha256 is required", name)
		}
	}
	return nil
}

// ValidateKey rejects names that would land outside the cache directory.
func ValidateKey(name string) error {
	if name == "" {
		return errors.New("manifest: empty file name")
	}
	clean := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") || clean != name {
		return fmt.Errorf("manifest: %q is not a plain relative path", name)
	}
	return nil
}

func checkDigest(s string) error {
	if s == "" {
		return nil
	}
	if len(s) != 64 {
		return fmt.Errorf("expected 64 hex characters, got %d", len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return fmt.Errorf("not hex: %w", err)
	}
	return nil
}

func normalizeDigest(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
