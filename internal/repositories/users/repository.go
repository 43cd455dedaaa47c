package users

import (
	"context"
	"time"

	"github.com/isdelr/blog-api/internal/models"
)

// Repository is the credential store. Username and email uniqueness is
// enforced here; violations surface as common.ErrorConflict.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// FindByUsernameOrEmail returns any user other than excludeID holding
	// username or email. Pass 0 to exclude nobody.
	FindByUsernameOrEmail(ctx context.Context, username, email string, excludeID int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	ListByIDs(ctx context.Context, ids []int64) (map[int64]models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error
	Delete(ctx context.Context, id int64) error
}
