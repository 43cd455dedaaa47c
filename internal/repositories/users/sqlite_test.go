package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/isdelr/blog-api/internal/common"
	"github.com/isdelr/blog-api/internal/database/dbtest"
	"github.com/isdelr/blog-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(username, email string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: "hash-" + username,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(dbtest.Open(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, newUser("alice", "alice@example.com"))
	require.NoError(t, err)
	assert.Positive(t, created.ID)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, "alice@example.com", byID.Email)
	assert.Equal(t, "hash-alice", byID.PasswordHash)
	assert.Nil(t, byID.Bio)
	assert.WithinDuration(t, created.CreatedAt, byID.CreatedAt, time.Millisecond)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCreate_Conflict(t *testing.T) {
	repo := NewSQLiteRepository(dbtest.Open(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("alice", "alice@example.com"))
	require.NoError(t, err)

	tests := []struct {
		name string
		user *models.User
	}{
		{"same username", newUser("alice", "other@example.com")},
		{"same email", newUser("alice2", "alice@example.com")},
		{"same email other case", newUser("alice3", "Alice@Example.com")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(ctx, tt.user)
			assert.ErrorIs(t, err, common.ErrorConflict)
		})
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFindByUsernameOrEmail(t *testing.T) {
	repo := NewSQLiteRepository(dbtest.Open(t))
	ctx := context.Background()

	alice, err := repo.Create(ctx, newUser("alice", "alice@example.com"))
	require.NoError(t, err)

	found, err := repo.FindByUsernameOrEmail(ctx, "alice", "x@example.com", 0)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	found, err = repo.FindByUsernameOrEmail(ctx, "x", "ALICE@example.com", 0)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	_, err = repo.FindByUsernameOrEmail(ctx, "alice", "alice@example.com", alice.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListAndListByIDs(t *testing.T) {
	repo := NewSQLiteRepository(dbtest.Open(t))
	ctx := context.Background()

	a, err := repo.Create(ctx, newUser("alice", "alice@example.com"))
	require.NoError(t, err)
	b, err := repo.Create(ctx, newUser("bob", "bob@example.com"))
	require.NoError(t, err)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)
	assert.Equal(t, b.ID, all[1].ID)

	m, err := repo.ListByIDs(ctx, []int64{b.ID, 12345})
	require.NoError(t, err)
	assert.Len(t, m, 1)
	assert.Equal(t, "bob", m[b.ID].Username)

	empty, err := repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdate(t *testing.T) {
	repo := NewSQLiteRepository(dbtest.Open(t))
	ctx := context.Background()

	alice, err := repo.Create(ctx, newUser("alice", "alice@example.com"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newUser("bob", "bob@example.com"))
	require.NoError(t, err)

	bio := "writes things"
	alice.Bio = &bio
	alice.Username = "alicia"
	require.NoError(t, repo.Update(ctx, alice))

	got, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", got.Username)
	require.NotNil(t, got.Bio)
	assert.Equal(t, bio, *got.Bio)

	alice.Username = "bob"
	assert.ErrorIs(t, repo.Update(ctx, alice), common.ErrorConflict)

	ghost := newUser("ghost", "ghost@example.com")
	ghost.ID = 999
	assert.ErrorIs(t, repo.Update(ctx, ghost), common.ErrorNotFound)
}

func TestUpdatePasswordAndDelete(t *testing.T) {
	repo := NewSQLiteRepository(dbtest.Open(t))
	ctx := context.Background()

	alice, err := repo.Create(ctx, newUser("alice", "alice@example.com"))
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePassword(ctx, alice.ID, "new-hash", time.Now().UTC()))
	got, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, 999, "h", time.Now().UTC()), common.ErrorNotFound)

	require.NoError(t, repo.Delete(ctx, alice.ID))
	_, err = repo.GetByID(ctx, alice.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, alice.ID), common.ErrorNotFound)
}

func newRepoWithMock(t *testing.T) (*SQLiteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteRepository(db), mock
}

func TestDBErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("db down")

	t.Run("create", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`(?s)INSERT\s+INTO\s+users\b.*RETURNING id`).WillReturnError(boom)

		_, err := repo.Create(ctx, newUser("alice", "alice@example.com"))
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, common.ErrorConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = ?`)).WithArgs(int64(1)).WillReturnError(boom)

		_, err := repo.GetByID(ctx, 1)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("list", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM users ORDER BY id`).WillReturnError(boom)

		_, err := repo.List(ctx)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("list row error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "bio", "created_at", "updated_at"}).
			AddRow(1, "alice", "a@example.com", "h", nil, time.Now(), time.Now()).
			RowError(0, boom)
		mock.ExpectQuery(`FROM users ORDER BY id`).WillReturnRows(rows)

		_, err := repo.List(ctx)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("delete", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`DELETE FROM users`).WithArgs(int64(3)).WillReturnError(boom)

		assert.ErrorIs(t, repo.Delete(ctx, 3), boom)
	})

	t.Run("rows affected", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`DELETE FROM users`).WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewErrorResult(boom))

		assert.ErrorIs(t, repo.Delete(ctx, 3), boom)
	})

	t.Run("no rows maps to not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM users WHERE username`).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByUsername(ctx, "x")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}
