package iocache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/devhealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateRuns_NoneBackend(t *testing.T) {
	err := MigrateRuns(schema.NoneBackend, "", -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for NoneBackend")
}

func TestMigrateRuns_UnsupportedBackend(t *testing.T) {
	assert.Error(t, MigrateRuns(schema.DatabaseBackend("redis"), "", -1))
}

func TestMigrateRuns_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	require.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, -1))
	_, err := os.Stat(dbPath)
	assert.NoError(t, err)

	// Already at latest
	assert.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, -1))

	// Down to version 1, then all the way down, then back up
	assert.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, 1))
	assert.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, 0))
	assert.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, 2))

	// The migrated schema is usable by the store
	store, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	_, err = store.BeginRun(testTime, nil)
	assert.NoError(t, err)
}

func TestMigrateRuns_EmbeddedDialects(t *testing.T) {
	for backend, dir := range migrationDirs {
		entries, err := migrationsFS.ReadDir(dir)
		require.NoError(t, err, "backend %s", backend)
		assert.Len(t, entries, 4, "backend %s should have up and down files for each version", backend)
	}
}
