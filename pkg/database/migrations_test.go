package database

import (
	"testing"
	"testing/fstest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewInMemory(uuid.NewString(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrator_Run(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	require.NoError(t, m.Run())

	for _, table := range []string{"statuses", "transitions", "tasks", "task_assignees", "audit_entries"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %s missing", table)
	}

	// Rerunning applies nothing new.
	require.NoError(t, m.Run())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrator_RunFS_AppliesInOrder(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	fsys := fstest.MapFS{
		"migrations/002_add_column.sql": {Data: []byte("ALTER TABLE widgets ADD COLUMN label TEXT;")},
		"migrations/001_create.sql":     {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);")},
	}

	require.NoError(t, m.RunFS(fsys, "migrations"))

	_, err := db.Exec("INSERT INTO widgets (label) VALUES ('a')")
	assert.NoError(t, err)
}

func TestMigrator_RunFS_BadFilename(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	fsys := fstest.MapFS{
		"migrations/unversioned.sql": {Data: []byte("CREATE TABLE x (id INTEGER);")},
	}

	assert.Error(t, m.RunFS(fsys, "migrations"))
}

func TestMigrator_RunFS_FailedMigrationRollsBack(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	fsys := fstest.MapFS{
		"migrations/001_bad.sql": {Data: []byte("CREATE TABLE broken (;")},
	}

	require.Error(t, m.RunFS(fsys, "migrations"))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Zero(t, count, "failed migration was recorded")
}
