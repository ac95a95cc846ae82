package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterforge/legend-engine/internal/model"
)

func TestOutputSelection_CSV(t *testing.T) {
	entries := []model.SelectionEntry{
		{IndividualID: "p1", Position: model.PosQB, Rank: 1, Included: true, Reason: model.ReasonSelected, Composite: 0.9123},
		{IndividualID: "p2", Position: model.PosQB, Rank: 2, Included: false, Reason: model.ReasonQuotaExceeded, Composite: 0.5},
	}
	names := map[string]string{"p1": "Sam Archer", "p2": "Lee Vann"}

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, outputSelection(entries, names, "csv", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "position,rank,individual_id,name,composite,included,reason", lines[0])
	assert.Equal(t, "QB,1,p1,Sam Archer,0.9123,true,selected", lines[1])
	assert.Contains(t, lines[2], "quota exceeded")
}

func TestOutputSelection_Table(t *testing.T) {
	entries := []model.SelectionEntry{
		{IndividualID: "p1", Position: model.PosRB, Rank: 1, Included: true, Reason: model.ReasonSelected, Composite: 0.81},
	}

	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, outputSelection(entries, map[string]string{"p1": "Jo Hale"}, "table", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "POS")
	assert.Contains(t, string(data), "Jo Hale")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("12345678-abcd-efgh"))
	assert.Equal(t, "short", truncateID("short"))
}
