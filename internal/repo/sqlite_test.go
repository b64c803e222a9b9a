package repo

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	write := buildDSN("/tmp/qapulse.sqlite", "write")
	assert.True(t, strings.HasPrefix(write, "/tmp/qapulse.sqlite?"))
	assert.Contains(t, write, "_journal_mode=WAL")
	assert.Contains(t, write, "_busy_timeout=5000")
	assert.Contains(t, write, "_foreign_keys=on")
	assert.Contains(t, write, "_txlock=immediate")

	read := buildDSN("/tmp/qapulse.sqlite", "read")
	assert.NotContains(t, read, "_txlock")
}

func TestOpenSQLiteInvalidMode(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "x.db"), "admin", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SQLite mode")
}

func TestOpenSQLitePairPools(t *testing.T) {
	writeDB, readDB, err := OpenSQLitePair(filepath.Join(t.TempDir(), "pair.db"), 3)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	assert.Equal(t, 1, writeDB.Stats().MaxOpenConnections)
	assert.Equal(t, 3, readDB.Stats().MaxOpenConnections)

	var journalMode string
	require.NoError(t, readDB.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", strings.ToLower(journalMode))
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	writeDB, err := OpenSQLite(filepath.Join(t.TempDir(), "m.db"), "write", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = writeDB.Close() })

	require.NoError(t, RunMigrations(writeDB))
	require.NoError(t, RunMigrations(writeDB))

	var count int
	require.NoError(t, writeDB.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('projects', 'test_runs', 'test_cases')",
	).Scan(&count))
	assert.Equal(t, 3, count)
}
