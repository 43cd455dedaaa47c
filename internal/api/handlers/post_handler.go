package handlers

import (
	"fmt"
	"net/http"

	"github.com/isdelr/blog-api/internal/auth"
	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/services"
)

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service services.PostServiceProvider
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service services.PostServiceProvider) *PostHandler {
	return &PostHandler{service: service}
}

// CreatePostPayload defines the structure for new posts. The author is
// always the caller; any author field in the body is ignored.
type CreatePostPayload struct {
	Title     string `json:"title" validate:"required,min=3,max=200"`
	Content   string `json:"content" validate:"required,min=10,max=100000"`
	Published *bool  `json:"published"`
}

// UpdatePostPayload is a partial post update; omitted or null fields are
// left as they are.
type UpdatePostPayload struct {
	Title     *string `json:"title" validate:"omitnil,min=3,max=200"`
	Content   *string `json:"content" validate:"omitnil,min=10,max=100000"`
	Published *bool   `json:"published"`
}

// Create handles creating a post owned by the caller.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	var payload CreatePostPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	fields := models.PostFields{Title: payload.Title, Content: payload.Content}
	if payload.Published != nil {
		fields.Published = *payload.Published
	}

	post, err := h.service.CreatePost(r.Context(), fields, subject.ID)
	if err != nil {
		writeServiceError(w, r, err, "create post")
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// GetPublished lists every published post.
func (h *PostHandler) GetPublished(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPublished(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list posts")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// GetMine lists the caller's posts, drafts included.
func (h *PostHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}

	posts, err := h.service.ListByAuthor(r.Context(), subject.ID)
	if err != nil {
		writeServiceError(w, r, err, "list own posts")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// Get returns a single post. Drafts are only shown to their author.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var viewerID int64
	if subject, ok := auth.SubjectFromContext(r.Context()); ok {
		viewerID = subject.ID
	}

	post, err := h.service.GetVisiblePost(r.Context(), id, viewerID)
	if err != nil {
		writeServiceError(w, r, err, "get post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Update applies a partial update to one of the caller's posts.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var payload UpdatePostPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	patch := models.PostPatch{Title: payload.Title, Content: payload.Content, Published: payload.Published}
	post, err := h.service.UpdatePost(r.Context(), id, patch, subject.ID)
	if err != nil {
		writeServiceError(w, r, err, "update post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Delete removes one of the caller's posts.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.service.RemovePost(r.Context(), id, subject.ID); err != nil {
		writeServiceError(w, r, err, "delete post")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("Post with ID %d has been deleted", id)})
}
