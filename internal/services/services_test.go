package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/blog-api/internal/auth"
	"github.com/isdelr/blog-api/internal/database/dbtest"
	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/repositories/repomanager"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type feedRecorder struct {
	mu        sync.Mutex
	published []models.PostView
}

func (f *feedRecorder) PublishPost(view models.PostView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, view)
}

func (f *feedRecorder) ids() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.published))
	for i, v := range f.published {
		out[i] = v.ID
	}
	return out
}

type testEnv struct {
	db     *sql.DB
	tokens *auth.TokenService
	events *EventService
	auth   *AuthService
	users  *UserService
	posts  *PostService
	feed   *feedRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.Open(t)
	repos := repomanager.NewSQLiteRepositoryManager()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	events := NewEventService(db, repos)
	feed := &feedRecorder{}

	return &testEnv{
		db:     db,
		tokens: tokens,
		events: events,
		auth:   NewAuthService(db, repos, hasher, tokens, events),
		users:  NewUserService(db, repos, hasher, events),
		posts:  NewPostService(db, repos, events, feed),
		feed:   feed,
	}
}

func (e *testEnv) register(t *testing.T, username string) AccountUser {
	t.Helper()
	res, err := e.auth.Register(context.Background(), username, username+"@example.com", "secret1")
	require.NoError(t, err)
	return res.User
}

func (e *testEnv) createPost(t *testing.T, authorID int64, title string, published bool) *models.PostView {
	t.Helper()
	view, err := e.posts.CreatePost(context.Background(), models.PostFields{
		Title: title, Content: "0123456789", Published: published,
	}, authorID)
	require.NoError(t, err)
	return view
}

// tick returns a clock advancing one second per call, so rows created in
// sequence get distinct timestamps.
func tick(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func eventTypes(events []models.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
