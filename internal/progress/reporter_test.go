package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{256 * 1024 * 1024, "256.00 MB"},
		{1024 * 1024 * 1024, "1.00 GB"},
		{1024 * 1024 * 1024 * 1024, "1.00 TB"},
	}

	for _, tt := range tests {
		result := FormatBytes(tt.input)
		if result != tt.expected {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"100", 100},
		{"100B", 100},
		{"1KB", 1024},
		{"1.5KB", 1536},
		{"256MB", 256 * 1024 * 1024},
		{" 2 GB ", 2 * 1024 * 1024 * 1024},
		{"1TB", 1024 * 1024 * 1024 * 1024},
	}

	for _, tt := range tests {
		result, err := ParseBytes(tt.input)
		if err != nil {
			t.Errorf("ParseBytes(%q): %v", tt.input, err)
			continue
		}
		if result != tt.expected {
			t.Errorf("ParseBytes(%q) = %d, want %d", tt.input, result, tt.expected)
		}
	}
}

func TestParseBytesInvalid(t *testing.T) {
	for _, input := range []string{"", "MB", "lots", "-1MB"} {
		if _, err := ParseBytes(input); err == nil {
			t.Errorf("ParseBytes(%q): expected error", input)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m 30s"},
		{3723 * time.Second, "1h 2m 3s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.input); got != tt.expected {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

// fakeClock advances by step on every call.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func TestRegionLines(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2016, 7, 20, 10, 0, 0, 0, time.UTC)
	r := NewReporter(Options{Output: &buf, Now: fakeClock(start, 90*time.Second)})

	r.RegionStarted("NSW")
	r.RegionCompleted("NSW")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if lines[0] != "Running election for NSW at 2016-07-20T10:01:30Z" {
		t.Errorf("unexpected start line %q", lines[0])
	}
	if lines[1] != "Completed election for NSW at 2016-07-20T10:03:00Z (1m 30s)" {
		t.Errorf("unexpected completion line %q", lines[1])
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(Options{Output: &buf})

	r.CacheHit("a.csv")
	r.Downloaded("b.csv", "https://example.com/b.zip", 2048, false)
	r.Downloaded("c.csv", "mem://mirror", 1024, true)
	r.Extracted("b.csv", "b.csv.zip")
	r.Skipped("VIC.csv")

	s := r.Summary()
	want := Summary{CacheHits: 1, Downloads: 1, MirrorHits: 1, Extractions: 1, Skipped: 1, Bytes: 3072}
	if s != want {
		t.Errorf("Summary = %+v, want %+v", s, want)
	}

	r.PrintSummary()
	out := buf.String()
	for _, part := range []string{
		"[tally] a.csv: cached",
		"[tally] b.csv: fetched 2.00 KB from https://example.com/b.zip",
		"[tally] b.csv: extracted from b.csv.zip",
		"1 cached, 1 downloaded, 1 from mirror, 1 extracted, 1 skipped | 3.00 KB transferred",
	} {
		if !strings.Contains(out, part) {
			t.Errorf("output missing %q:\n%s", part, out)
		}
	}
}

func TestNilReporter(t *testing.T) {
	var r *Reporter
	r.CacheHit("a.csv")
	r.Downloaded("a.csv", "x", 1, false)
	r.Extracted("a.csv", "a.csv.zip")
	r.Skipped("a.csv")
	r.RegionStarted("NSW")
	r.RegionCompleted("NSW")
	r.PrintSummary()
	if s := r.Summary(); s != (Summary{}) {
		t.Errorf("nil reporter summary = %+v, want zero", s)
	}
}
