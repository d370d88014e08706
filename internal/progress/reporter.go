package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// Output is where to write progress output.
	// Default: os.Stdout
	Output io.Writer

	// Now returns the current time.
	// Default: time.Now
	Now func() time.Time
}

// Reporter outputs human-readable progress information for fetches and
// region runs.
type Reporter struct {
	opts Options

	mu           sync.Mutex
	cacheHits    int
	downloads    int
	mirrorHits   int
	extractions  int
	skipped      int
	bytes        int64
	regionStarts map[string]time.Time
	startTime    time.Time
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Reporter{
		opts:         opts,
		regionStarts: make(map[string]time.Time),
		startTime:    opts.Now(),
	}
}

// Skipped records an entry excluded by the group filter.
func (r *Reporter) Skipped(name string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped++
}

// CacheHit records an entry served from the cache.
func (r *Reporter) CacheHit(name string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cacheHits++
	fmt.Fprintf(r.opts.Output, "[tally] %s: cached\n", name)
}

// Downloaded records a completed transfer of size bytes for name.
func (r *Reporter) Downloaded(name, source string, size int64, fromMirror bool) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if fromMirror {
		r.mirrorHits++
	} else {
		r.downloads++
	}
	r.bytes += size
	fmt.Fprintf(r.opts.Output, "[tally] %s: fetched %s from %s\n", name, formatBytes(size), source)
}

// Extracted records that name was unpacked from archive.
func (r *Reporter) Extracted(name, archive string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractions++
	fmt.Fprintf(r.opts.Output, "[tally] %s: extracted from %s\n", name, archive)
}

// RegionStarted prints the start line for a region run.
func (r *Reporter) RegionStarted(region string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.opts.Now()
	r.regionStarts[region] = now
	fmt.Fprintf(r.opts.Output, "Running election for %s at %s\n", region, timestamp(now))
}

// RegionCompleted prints the completion line for a region run.
func (r *Reporter) RegionCompleted(region string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.opts.Now()
	elapsed := now.Sub(r.regionStarts[region])
	delete(r.regionStarts, region)
	fmt.Fprintf(r.opts.Output, "Completed election for %s at %s (%s)\n", region, timestamp(now), formatDuration(elapsed))
}

// Summary is a snapshot of the fetch counters.
type Summary struct {
	CacheHits   int
	Downloads   int
	MirrorHits  int
	Extractions int
	Skipped     int
	Bytes       int64
}

// Summary returns the current counters.
func (r *Reporter) Summary() Summary {
	if r == nil {
		return Summary{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return Summary{
		CacheHits:   r.cacheHits,
		Downloads:   r.downloads,
		MirrorHits:  r.mirrorHits,
		Extractions: r.extractions,
		Skipped:     r.skipped,
		Bytes:       r.bytes,
	}
}

// PrintSummary outputs the fetch totals.
func (r *Reporter) PrintSummary() {
	if r == nil {
		return
	}
	s := r.Summary()
	parts := []string{
		fmt.Sprintf("%d cached", s.CacheHits),
		fmt.Sprintf("%d downloaded", s.Downloads),
	}
	if s.MirrorHits > 0 {
		parts = append(parts, fmt.Sprintf("%d from mirror", s.MirrorHits))
	}
	if s.Extractions > 0 {
		parts = append(parts, fmt.Sprintf("%d extracted", s.Extractions))
	}
	if s.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", s.Skipped))
	}
	fmt.Fprintf(r.opts.Output, "[tally] Data: %s | %s transferred | %s\n",
		strings.Join(parts, ", "),
		formatBytes(s.Bytes),
		formatDuration(r.opts.Now().Sub(r.startTime)),
	)
}

func timestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case b >= TB:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// FormatBytes is exported for use by other packages.
func FormatBytes(b int64) string {
	return formatBytes(b)
}

// ParseBytes parses a human-readable byte string (e.g., "256MB").
func ParseBytes(s string) (int64, error) {
	var multiplier int64 = 1
	s = strings.TrimSpace(s)

	switch {
	case strings.HasSuffix(s, "TB"):
		multiplier = 1024 * 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "B"):
		s = s[:len(s)-1]
	}

	var value float64
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &value); err != nil {
		return 0, fmt.Errorf("invalid byte string: %s", s)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative byte string: %s", s)
	}

	return int64(value * float64(multiplier)), nil
}
