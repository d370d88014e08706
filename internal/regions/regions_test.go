package regions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var senate = Table{
	"ACT": 2, "NSW": 12, "NT": 2, "QLD": 12,
	"SA": 12, "TAS": 12, "VIC": 12, "WA": 12,
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "states.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	table, err := Load(writeFile(t, `{"NSW": 12, "ACT": 2}`))
	require.NoError(t, err)
	assert.Equal(t, Table{"NSW": 12, "ACT": 2}, table)
}

func TestLoadYAML(t *testing.T) {
	table, err := Load(writeFile(t, "TAS: 12\nNT: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, Table{"TAS": 12, "NT": 2}, table)
}

func TestLoadInvalid(t *testing.T) {
	for name, content := range map[string]string{
		"not a number": `{"NSW": "twelve"}`,
		"zero seats":   `{"NSW": 0}`,
		"syntax":       `{"NSW": `,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestFilterEmptySelectsAll(t *testing.T) {
	filtered := senate.Filter(nil)
	assert.Equal(t, senate, filtered)

	filtered["XX"] = 1
	assert.NotContains(t, senate, "XX", "filter must copy the table")
}

func TestFilterSubset(t *testing.T) {
	filtered := senate.Filter([]string{"VIC", "ACT"})
	assert.Equal(t, Table{"VIC": 12, "ACT": 2}, filtered)
}

func TestFilterDropsUnknown(t *testing.T) {
	filtered := senate.Filter([]string{"NSW", "Gondwana"})
	assert.Equal(t, Table{"NSW": 12}, filtered)
	assert.Equal(t, []string{"Gondwana"}, senate.Unknown([]string{"NSW", "Gondwana"}))

	assert.Empty(t, senate.Filter([]string{"Gondwana"}))
}

func TestSorted(t *testing.T) {
	got := senate.Filter([]string{"WA", "NSW", "ACT", "NT"}).Sorted()
	assert.Equal(t, []Region{
		{ID: "ACT", Seats: 2},
		{ID: "NSW", Seats: 12},
		{ID: "NT", Seats: 2},
		{ID: "WA", Seats: 12},
	}, got)
}

func TestGroups(t *testing.T) {
	groups := Table{"NSW": 12, "TAS": 12}.Groups()
	assert.True(t, groups["NSW"])
	assert.True(t, groups["TAS"])
	assert.False(t, groups["VIC"])
	assert.NotNil(t, Table{}.Groups(), "an empty table must still filter tagged entries")
}
