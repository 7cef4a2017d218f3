package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "locations.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadCSVParsesRowsAndAssignsIDs(t *testing.T) {
	path := writeTempCSV(t, "name,latitude,longitude,wco_amount,disposal_schedule\n"+
		"Restaurant A,14.60,121.00,20,7\n"+
		"Restaurant B,14.61,121.01,30,7\n")

	locs, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, locs, 2)

	assert.Equal(t, "Restaurant A", locs[0].Name)
	assert.InDelta(t, 20.0, locs[0].WCOAmount, 1e-9)
	assert.Equal(t, 7, locs[0].DisposalSchedule)
	assert.NotEqual(t, locs[0].ID, locs[1].ID)
	assert.Regexp(t, `^loc_[0-9a-f]{8}$`, locs[0].ID)
}

func TestLoadCSVMissingColumnFails(t *testing.T) {
	path := writeTempCSV(t, "name,latitude,longitude\nA,1,2\n")
	_, err := LoadCSV(path)
	assert.Error(t, err)
}

func TestLoadCSVMissingFileFails(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "does-not-exist.csv"))
	assert.Error(t, err)
}
