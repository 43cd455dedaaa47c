package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *sql.DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "blog.db?"+pragmas, dsn("blog.db"))
	assert.Equal(t, "file:x.db?mode=rwc&"+pragmas, dsn("file:x.db?mode=rwc"))
}

func TestMigrate_CreatesSchema(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, db))
	// Re-running is a no-op.
	require.NoError(t, Migrate(ctx, db))

	for _, table := range []string{"users", "posts", "events"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestMigrate_ForeignKeysEnforced(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, Migrate(context.Background(), db))

	_, err := db.Exec(`INSERT INTO posts (title, content, published, author_id, created_at, updated_at)
		VALUES ('t', 'c', 0, 999, datetime('now'), datetime('now'))`)
	assert.Error(t, err)
}

func TestMigrate_EmailUniqueIgnoresCase(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, Migrate(context.Background(), db))

	const q = `INSERT INTO users (username, email, password_hash, created_at, updated_at)
		VALUES (?, ?, 'h', datetime('now'), datetime('now'))`
	_, err := db.Exec(q, "alice", "alice@example.com")
	require.NoError(t, err)
	_, err = db.Exec(q, "alice2", "ALICE@example.com")
	assert.Error(t, err)
}

func TestMigrate_Error(t *testing.T) {
	db := openTemp(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	err := Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
