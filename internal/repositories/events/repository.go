package events

import (
	"context"
	"time"

	"github.com/isdelr/blog-api/internal/models"
)

// Repository stores the activity log.
type Repository interface {
	Create(ctx context.Context, event *models.Event) error
	ListRecentByUser(ctx context.Context, userID int64, limit int) ([]models.Event, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
