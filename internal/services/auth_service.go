package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/blog-api/internal/auth"
	"github.com/isdelr/blog-api/internal/common"
	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/repositories/repomanager"
	"github.com/rs/zerolog/log"
)

// AuthServiceProvider defines the interface for registration and login.
type AuthServiceProvider interface {
	Register(ctx context.Context, username, email, password string) (*AuthResult, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	GetProfile(ctx context.Context, subjectID int64) (*models.UserProfile, error)
}

// AccountUser is the non-sensitive part of a user returned on login.
type AccountUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthResult is the outcome of a successful register or login.
type AuthResult struct {
	User        AccountUser `json:"user"`
	AccessToken string      `json:"access_token"`
}

// AuthService composes the credential store, hasher and token service.
type AuthService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
	events EventServiceProvider
	now    func() time.Time

	// dummyHash is verified against when the username is unknown so both
	// login failures cost the same.
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(db *sql.DB, repos repomanager.RepositoryManager, hasher *auth.PasswordHasher, tokens *auth.TokenService, events EventServiceProvider) *AuthService {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to prepare dummy password hash")
	}
	return &AuthService{
		db:        db,
		repos:     repos,
		hasher:    hasher,
		tokens:    tokens,
		events:    events,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Register creates an account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	users := s.repos.Users(s.db)

	// Fast path. The unique indexes still decide concurrent races below.
	if _, err := users.FindByUsernameOrEmail(ctx, username, email, 0); err == nil {
		return nil, common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user, err := users.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	result, err := s.signIn(user)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	recordEvent(ctx, s.events, models.EventUserRegister, "info", fmt.Sprintf("Account '%s' was created.", user.Username), &user.ID)
	return result, nil
}

// Login checks the credentials and issues a fresh token. Unknown usernames
// and wrong passwords both yield common.ErrorUnauthorized.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.repos.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	result, err := s.signIn(user)
	if err != nil {
		return nil, err
	}

	recordEvent(ctx, s.events, models.EventUserLogin, "info", fmt.Sprintf("User '%s' signed in.", user.Username), &user.ID)
	return result, nil
}

// GetProfile returns the subject's account with their posts. It fails with
// common.ErrorNotFound when the token outlived the account.
func (s *AuthService) GetProfile(ctx context.Context, subjectID int64) (*models.UserProfile, error) {
	return loadProfile(ctx, s.db, s.repos, subjectID, true)
}

func (s *AuthService) signIn(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{
		User:        AccountUser{ID: user.ID, Username: user.Username, Email: user.Email},
		AccessToken: token,
	}, nil
}

func loadProfile(ctx context.Context, db *sql.DB, repos repomanager.RepositoryManager, userID int64, withDrafts bool) (*models.UserProfile, error) {
	user, err := repos.Users(db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := repos.Posts(db).ListByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !withDrafts {
		visible := posts[:0]
		for _, p := range posts {
			if p.Published {
				visible = append(visible, p)
			}
		}
		posts = visible
	}
	profile := models.AssembleProfile(*user, posts)
	return &profile, nil
}
