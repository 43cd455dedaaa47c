package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/blog-api/internal/auth"
	"github.com/isdelr/blog-api/internal/common"
	"github.com/isdelr/blog-api/internal/dbx"
	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/repositories/repomanager"
	"github.com/rs/zerolog/log"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	ListUsers(ctx context.Context) ([]models.UserView, error)
	GetUserProfile(ctx context.Context, id int64, viewerID int64) (*models.UserProfile, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch, requesterID int64) (*models.UserView, error)
	UpdatePassword(ctx context.Context, id int64, currentPassword, newPassword string, requesterID int64) error
	DeleteUser(ctx context.Context, id int64, requesterID int64) error
}

// UserService provides business logic for account management. Accounts
// can only be changed by their owner.
type UserService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	hasher *auth.PasswordHasher
	events EventServiceProvider
	now    func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, repos repomanager.RepositoryManager, hasher *auth.PasswordHasher, events EventServiceProvider) *UserService {
	return &UserService{db: db, repos: repos, hasher: hasher, events: events, now: time.Now}
}

// ListUsers returns every account without credentials.
func (s *UserService) ListUsers(ctx context.Context) ([]models.UserView, error) {
	users, err := s.repos.Users(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	return models.NewUserViews(users), nil
}

// GetUserProfile returns a user joined with the posts they authored.
// Drafts are included only when the viewer is that user.
func (s *UserService) GetUserProfile(ctx context.Context, id int64, viewerID int64) (*models.UserProfile, error) {
	return loadProfile(ctx, s.db, s.repos, id, id == viewerID)
}

// UpdateUser applies a partial profile update. Username and email stay
// unique; a collision with another account is common.ErrorConflict.
func (s *UserService) UpdateUser(ctx context.Context, id int64, patch models.UserPatch, requesterID int64) (*models.UserView, error) {
	if id != requesterID {
		return nil, common.ErrorForbidden
	}

	users := s.repos.Users(s.db)
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		view := models.NewUserView(*user)
		return &view, nil
	}

	patch.ApplyTo(user)

	if _, err := users.FindByUsernameOrEmail(ctx, user.Username, user.Email, user.ID); err == nil {
		return nil, common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}

	user.UpdatedAt = s.now().UTC()
	if err := users.Update(ctx, user); err != nil {
		return nil, err
	}

	recordEvent(ctx, s.events, models.EventUserUpdate, "info", fmt.Sprintf("Profile of '%s' was updated.", user.Username), &user.ID)
	view := models.NewUserView(*user)
	return &view, nil
}

// UpdatePassword replaces the password after checking the current one. A
// wrong current password is common.ErrorUnauthorized.
func (s *UserService) UpdatePassword(ctx context.Context, id int64, currentPassword, newPassword string, requesterID int64) error {
	if id != requesterID {
		return common.ErrorForbidden
	}

	users := s.repos.Users(s.db)
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return common.ErrorUnauthorized
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := users.UpdatePassword(ctx, id, hash, s.now().UTC()); err != nil {
		return err
	}

	recordEvent(ctx, s.events, models.EventUserPassword, "warn", fmt.Sprintf("Password of '%s' was changed.", user.Username), &user.ID)
	return nil
}

// DeleteUser removes the account together with every post it authored.
func (s *UserService) DeleteUser(ctx context.Context, id int64, requesterID int64) error {
	if id != requesterID {
		return common.ErrorForbidden
	}

	var removed int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repos.Posts(tx).DeleteByAuthor(ctx, id)
		if err != nil {
			return err
		}
		removed = n
		return s.repos.Users(tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	log.Info().Int64("user_id", id).Int64("posts_removed", removed).Msg("User deleted")
	// The account is gone, so the event cannot reference it.
	recordEvent(ctx, s.events, models.EventUserDelete, "warn",
		fmt.Sprintf("Account %d was deleted along with %d post(s).", id, removed), nil)
	return nil
}
