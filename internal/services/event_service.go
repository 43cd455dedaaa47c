package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/repositories/repomanager"
	"github.com/rs/zerolog/log"
)

const (
	DefaultEventLimit = 20
	MaxEventLimit     = 100
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, userID *int64) error
	GetRecentEvents(ctx context.Context, userID int64, limit int) ([]models.Event, error)
	PruneEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// EventService provides business logic for the activity log.
type EventService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	now   func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, repos repomanager.RepositoryManager) *EventService {
	return &EventService{db: db, repos: repos, now: time.Now}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, userID *int64) error {
	event := &models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	return s.repos.Events(s.db).Create(ctx, event)
}

// GetRecentEvents returns the user's newest events. limit is clamped to
// [1, MaxEventLimit]; non-positive values mean DefaultEventLimit.
func (s *EventService) GetRecentEvents(ctx context.Context, userID int64, limit int) ([]models.Event, error) {
	switch {
	case limit <= 0:
		limit = DefaultEventLimit
	case limit > MaxEventLimit:
		limit = MaxEventLimit
	}
	return s.repos.Events(s.db).ListRecentByUser(ctx, userID, limit)
}

// PruneEvents deletes events older than olderThan.
func (s *EventService) PruneEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %s", olderThan)
	}
	return s.repos.Events(s.db).DeleteBefore(ctx, s.now().UTC().Add(-olderThan))
}

// recordEvent writes an activity event. Failures are logged and never
// fail the operation being recorded.
func recordEvent(ctx context.Context, events EventServiceProvider, eventType, level, message string, userID *int64) {
	if err := events.CreateEvent(ctx, eventType, level, message, userID); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to record event")
	}
}
