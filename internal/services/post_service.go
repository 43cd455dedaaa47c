package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/blog-api/internal/common"
	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/repositories/repomanager"
	"github.com/rs/zerolog/log"
)

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	CreatePost(ctx context.Context, fields models.PostFields, authorID int64) (*models.PostView, error)
	ListPublished(ctx context.Context) ([]models.PostView, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]models.PostView, error)
	GetPostByID(ctx context.Context, id int64) (*models.PostView, error)
	GetVisiblePost(ctx context.Context, id int64, viewerID int64) (*models.PostView, error)
	UpdatePost(ctx context.Context, id int64, patch models.PostPatch, requesterID int64) (*models.PostView, error)
	RemovePost(ctx context.Context, id int64, requesterID int64) error
}

// FeedPublisher is notified whenever a post becomes public.
type FeedPublisher interface {
	PublishPost(view models.PostView)
}

// PostService provides business logic for posts. Only a post's author may
// change or remove it.
type PostService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	events EventServiceProvider
	feed   FeedPublisher
	now    func() time.Time
}

// NewPostService creates a new PostService.
func NewPostService(db *sql.DB, repos repomanager.RepositoryManager, events EventServiceProvider, feed FeedPublisher) *PostService {
	return &PostService{db: db, repos: repos, events: events, feed: feed, now: time.Now}
}

// CreatePost stores a new post owned by authorID.
func (s *PostService) CreatePost(ctx context.Context, fields models.PostFields, authorID int64) (*models.PostView, error) {
	author, err := s.repos.Users(s.db).GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	post, err := s.repos.Posts(s.db).Create(ctx, &models.Post{
		Title:     fields.Title,
		Content:   fields.Content,
		Published: fields.Published,
		AuthorID:  author.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	view := models.AssemblePost(*post, *author)
	recordEvent(ctx, s.events, models.EventPostCreate, "info", fmt.Sprintf("Post '%s' was created.", post.Title), &author.ID)
	if post.Published {
		s.feed.PublishPost(view)
	}
	return &view, nil
}

// ListPublished returns published posts, newest first.
func (s *PostService) ListPublished(ctx context.Context) ([]models.PostView, error) {
	posts, err := s.repos.Posts(s.db).ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	return s.withAuthors(ctx, posts)
}

// ListByAuthor returns every post of authorID, drafts included, newest first.
func (s *PostService) ListByAuthor(ctx context.Context, authorID int64) ([]models.PostView, error) {
	posts, err := s.repos.Posts(s.db).ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return s.withAuthors(ctx, posts)
}

func (s *PostService) withAuthors(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	seen := make(map[int64]bool, len(posts))
	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		if !seen[p.AuthorID] {
			seen[p.AuthorID] = true
			ids = append(ids, p.AuthorID)
		}
	}

	authors, err := s.repos.Users(s.db).ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return models.AssemblePosts(posts, authors), nil
}

// GetPostByID returns a post joined with its author, regardless of its
// published state.
func (s *PostService) GetPostByID(ctx context.Context, id int64) (*models.PostView, error) {
	post, err := s.repos.Posts(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	author, err := s.repos.Users(s.db).GetByID(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}
	view := models.AssemblePost(*post, *author)
	return &view, nil
}

// GetVisiblePost is GetPostByID for a given viewer: drafts are only
// visible to their author and look missing to everyone else. viewerID is
// 0 for anonymous callers.
func (s *PostService) GetVisiblePost(ctx context.Context, id int64, viewerID int64) (*models.PostView, error) {
	view, err := s.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !view.Published && view.AuthorID != viewerID {
		return nil, common.ErrorNotFound
	}
	return view, nil
}

// authorize fetches the post and checks requesterID owns it.
func (s *PostService) authorize(ctx context.Context, id int64, requesterID int64) (*models.Post, error) {
	post, err := s.repos.Posts(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != requesterID {
		log.Warn().Int64("post_id", id).Int64("requester_id", requesterID).Msg("Rejected change to post by non-author")
		return nil, common.ErrorForbidden
	}
	return post, nil
}

// UpdatePost merges the supplied fields into the post and returns the
// stored result.
func (s *PostService) UpdatePost(ctx context.Context, id int64, patch models.PostPatch, requesterID int64) (*models.PostView, error) {
	post, err := s.authorize(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	wasPublished := post.Published
	patch.ApplyTo(post)
	post.UpdatedAt = s.now().UTC()

	if err := s.repos.Posts(s.db).Update(ctx, post); err != nil {
		return nil, err
	}

	view, err := s.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}

	recordEvent(ctx, s.events, models.EventPostUpdate, "info", fmt.Sprintf("Post '%s' was updated.", view.Title), &view.AuthorID)
	if !wasPublished && view.Published {
		s.feed.PublishPost(*view)
	}
	return view, nil
}

// RemovePost deletes the post.
func (s *PostService) RemovePost(ctx context.Context, id int64, requesterID int64) error {
	post, err := s.authorize(ctx, id, requesterID)
	if err != nil {
		return err
	}

	if err := s.repos.Posts(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			log.Debug().Int64("post_id", id).Msg("Post vanished before delete")
		}
		return err
	}

	recordEvent(ctx, s.events, models.EventPostDelete, "warn", fmt.Sprintf("Post '%s' was deleted.", post.Title), &post.AuthorID)
	return nil
}
