package handlers

import (
	"net/http"

	"github.com/isdelr/blog-api/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, login and the caller's profile.
type AuthHandler struct {
	service services.AuthServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.AuthServiceProvider) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username" validate:"required,min=3,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string `json:"message"`
	*services.AuthResult
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	result, err := h.service.Register(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		writeServiceError(w, r, err, "register user")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Message: "User registered successfully", AuthResult: result})
}

// Login handles user authentication and token issuance.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	result, err := h.service.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed authentication attempt")
		writeServiceError(w, r, err, "log in")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Message: "Login successful", AuthResult: result})
}

// Profile returns the authenticated user with their posts.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), subject.ID)
	if err != nil {
		writeServiceError(w, r, err, "load profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
