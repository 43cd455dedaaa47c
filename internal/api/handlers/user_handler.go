package handlers

import (
	"fmt"
	"net/http"

	"github.com/isdelr/blog-api/internal/auth"
	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/services"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// UpdateUserPayload is a partial profile update; omitted or null fields
// are left as they are.
type UpdateUserPayload struct {
	Username *string `json:"username" validate:"omitnil,min=3,max=20"`
	Email    *string `json:"email" validate:"omitnil,email"`
	Bio      *string `json:"bio" validate:"omitnil,max=255"`
}

// UpdatePasswordPayload defines the structure for password updates.
type UpdatePasswordPayload struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

// GetAll lists every user.
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Get handles retrieving a user by their ID, with their posts. Drafts are
// listed only for the user themselves.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var viewerID int64
	if subject, ok := auth.SubjectFromContext(r.Context()); ok {
		viewerID = subject.ID
	}

	profile, err := h.service.GetUserProfile(r.Context(), id, viewerID)
	if err != nil {
		writeServiceError(w, r, err, "get user")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Update handles a partial profile update of the caller's own account.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var payload UpdateUserPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	patch := models.UserPatch{Username: payload.Username, Email: payload.Email, Bio: payload.Bio}
	user, err := h.service.UpdateUser(r.Context(), id, patch, subject.ID)
	if err != nil {
		writeServiceError(w, r, err, "update user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdatePassword changes the caller's password.
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var payload UpdatePasswordPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	if err := h.service.UpdatePassword(r.Context(), id, payload.CurrentPassword, payload.NewPassword, subject.ID); err != nil {
		writeServiceError(w, r, err, "update password")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password updated successfully"})
}

// Delete removes the caller's account and every post it authored.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), id, subject.ID); err != nil {
		writeServiceError(w, r, err, "delete user")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("User with ID %d has been deleted", id)})
}
