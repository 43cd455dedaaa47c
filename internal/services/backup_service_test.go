package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/isdelr/blog-api/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService_CreateListPrune(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	dir := filepath.Join(t.TempDir(), "backups")
	svc := NewBackupService(env.db, env.events, dir)
	svc.now = tick(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	var created []string
	for i := 0; i < 3; i++ {
		b, err := svc.CreateBackup(ctx)
		require.NoError(t, err)
		assert.Positive(t, b.Size)
		created = append(created, b.Name)
	}

	// A snapshot is a usable database holding the same rows.
	snap, err := database.New(filepath.Join(dir, created[0]))
	require.NoError(t, err)
	defer snap.Close()
	var users int
	require.NoError(t, snap.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users))
	assert.Equal(t, 1, users)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	list, err := svc.ListBackups()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, created[2], list[0].Name)

	removed, err := svc.PruneBackups(1)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	list, err = svc.ListBackups()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created[2], list[0].Name)

	_, err = svc.PruneBackups(0)
	assert.Error(t, err)
}

func TestBackupService_ListMissingDir(t *testing.T) {
	svc := NewBackupService(nil, nil, filepath.Join(t.TempDir(), "nope"))

	list, err := svc.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBackupService_SameNameKeepsExistingBackup(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	dir := filepath.Join(t.TempDir(), "backups")
	svc := NewBackupService(env.db, env.events, dir)
	fixed := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	first, err := svc.CreateBackup(ctx)
	require.NoError(t, err)

	_, err = svc.CreateBackup(ctx)
	require.Error(t, err)

	info, err := os.Stat(filepath.Join(dir, first.Name))
	require.NoError(t, err)
	assert.Equal(t, first.Size, info.Size())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBackupService_FailedSnapshotLeavesNothing(t *testing.T) {
	env := newTestEnv(t)
	dir := filepath.Join(t.TempDir(), "backups")
	svc := NewBackupService(env.db, env.events, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.CreateBackup(ctx)
	require.Error(t, err)

	list, err := svc.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, list)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
