package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogFile_CreatesFileInDirectory(t *testing.T) {
	dir := t.TempDir()

	f, err := SetupLogFile(dir, 5)
	require.NoError(t, err)
	defer f.Close()

	assert.FileExists(t, f.Name())
	assert.Equal(t, filepath.Clean(dir), filepath.Dir(f.Name()))
}

func TestSetupLogFile_CleansUpOldestFilesBeyondMax(t *testing.T) {
	dir := t.TempDir()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var names []string
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Hour).Format("2006-01-02T15-04-05")
		name := filepath.Join(dir, "server-"+ts+".log")
		require.NoError(t, os.WriteFile(name, []byte("log"), 0o644))
		names = append(names, name)
	}

	require.NoError(t, cleanupOldLogs(dir, 2))

	_, err := os.Stat(names[0])
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, names[1])
	assert.FileExists(t, names[2])
}

func TestSetupLogFile_NoCleanupWhenUnderLimit(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "server-2026-01-01T00-00-00.log")
	require.NoError(t, os.WriteFile(name, []byte("log"), 0o644))

	require.NoError(t, cleanupOldLogs(dir, 5))
	assert.FileExists(t, name)
}
