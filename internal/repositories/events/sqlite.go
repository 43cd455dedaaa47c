package events

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/isdelr/blog-api/internal/dbx"
	"github.com/isdelr/blog-api/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, event *models.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, type, level, message, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, event.Type, event.Level, event.Message, event.UserID, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListRecentByUser(ctx context.Context, userID int64, limit int) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, level, message, user_id, created_at FROM events
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var (
			event models.Event
			uid   sql.NullInt64
		)
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &uid, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if uid.Valid {
			event.UserID = &uid.Int64
		}
		event.CreatedAt = event.CreatedAt.UTC()
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return events, nil
}

// DeleteBefore removes events created before cutoff and returns how many.
func (r *SQLiteRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
