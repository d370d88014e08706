// Package regions loads the table of regions a run iterates over.
package regions

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ligustah/tally/pkg/manifest"
)

// Table maps a region identifier to its integer parameter (seats to fill).
type Table map[string]int

// Region is one row of a Table.
type Region struct {
	ID    string
	Seats int
}

// Load reads a region table from a YAML or JSON file.
func Load(filename string) (Table, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("regions: read %s: %w", filename, err)
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("regions: parse %s: %w", filename, err)
	}
	for id, seats := range t {
		if id == "" {
			return nil, fmt.Errorf("regions: %s: empty region identifier", filename)
		}
		if seats <= 0 {
			return nil, fmt.Errorf("regions: %s: %s must have a positive parameter, got %d", filename, id, seats)
		}
	}
	if t == nil {
		t = Table{}
	}
	return t, nil
}

// Filter returns the rows whose identifiers are in requested. An empty
// request selects the whole table. Identifiers not in the table are dropped.
func (t Table) Filter(requested []string) Table {
	if len(requested) == 0 {
		out := make(Table, len(t))
		for id, seats := range t {
			out[id] = seats
		}
		return out
	}

	out := make(Table, len(requested))
	for _, id := range requested {
		if seats, ok := t[id]; ok {
			out[id] = seats
		}
	}
	return out
}

// Unknown returns the requested identifiers that are not in the table.
func (t Table) Unknown(requested []string) []string {
	var unknown []string
	for _, id := range requested {
		if _, ok := t[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	return unknown
}

// Sorted returns the rows ordered by identifier.
func (t Table) Sorted() []Region {
	out := make([]Region, 0, len(t))
	for id, seats := range t {
		out = append(out, Region{ID: id, Seats: seats})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Groups returns the identifiers as a manifest group filter.
func (t Table) Groups() manifest.Groups {
	g := make(manifest.Groups, len(t))
	for id := range t {
		g[id] = true
	}
	return g
}
