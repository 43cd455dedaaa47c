package events

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/isdelr/blog-api/internal/database/dbtest"
	"github.com/isdelr/blog-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, db *sql.DB, username string) int64 {
	t.Helper()
	now := time.Now().UTC()
	var id int64
	err := db.QueryRow(`INSERT INTO users (username, email, password_hash, created_at, updated_at)
		VALUES (?, ?, 'h', ?, ?) RETURNING id`, username, username+"@example.com", now, now).Scan(&id)
	require.NoError(t, err)
	return id
}

func newEvent(userID *int64, typ string, at time.Time) *models.Event {
	return &models.Event{
		ID:        uuid.New().String(),
		Type:      typ,
		Level:     "info",
		Message:   typ + " happened",
		UserID:    userID,
		CreatedAt: at,
	}
}

func TestCreateAndListRecentByUser(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, newEvent(&alice, models.EventUserRegister, base)))
	require.NoError(t, repo.Create(ctx, newEvent(&alice, models.EventUserLogin, base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newEvent(&alice, models.EventPostCreate, base.Add(2*time.Hour))))
	require.NoError(t, repo.Create(ctx, newEvent(&bob, models.EventUserRegister, base)))
	require.NoError(t, repo.Create(ctx, newEvent(nil, "system", base)))

	got, err := repo.ListRecentByUser(ctx, alice, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.EventPostCreate, got[0].Type)
	assert.Equal(t, models.EventUserLogin, got[1].Type)
	require.NotNil(t, got[0].UserID)
	assert.Equal(t, alice, *got[0].UserID)
	assert.True(t, got[0].CreatedAt.Equal(base.Add(2*time.Hour)))

	none, err := repo.ListRecentByUser(ctx, 999, 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestDeleteBefore(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, newEvent(&alice, "old", now.Add(-48*time.Hour))))
	require.NoError(t, repo.Create(ctx, newEvent(&alice, "older", now.Add(-72*time.Hour))))
	require.NoError(t, repo.Create(ctx, newEvent(&alice, "fresh", now.Add(-time.Minute))))

	n, err := repo.DeleteBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := repo.ListRecentByUser(ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "fresh", left[0].Type)
}

func TestUserDeletionNullsReference(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	e := newEvent(&alice, models.EventUserLogin, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, e))

	_, err := db.Exec(`DELETE FROM users WHERE id = ?`, alice)
	require.NoError(t, err)

	var uid sql.NullInt64
	require.NoError(t, db.QueryRow(`SELECT user_id FROM events WHERE id = ?`, e.ID).Scan(&uid))
	assert.False(t, uid.Valid)
}

func TestDBErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("db down")

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewSQLiteRepository(db)

	mock.ExpectExec(`INSERT INTO events`).WillReturnError(boom)
	assert.ErrorIs(t, repo.Create(ctx, newEvent(nil, "x", time.Now())), boom)

	mock.ExpectQuery(`FROM events`).WithArgs(int64(1), 5).WillReturnError(boom)
	_, err = repo.ListRecentByUser(ctx, 1, 5)
	assert.ErrorIs(t, err, boom)

	mock.ExpectExec(`DELETE FROM events`).WillReturnError(boom)
	_, err = repo.DeleteBefore(ctx, time.Now())
	assert.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}
