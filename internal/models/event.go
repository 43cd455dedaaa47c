package models

import "time"

// Event represents a recorded account or post activity.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "user.login", "post.delete"
	Level     string    `json:"level"` // e.g., "info", "warn"
	Message   string    `json:"message"`
	UserID    *int64    `json:"userId,omitempty"` // Nulled when the account is deleted
	CreatedAt time.Time `json:"createdAt"`
}

// Event types recorded by the services.
const (
	EventUserRegister = "user.register"
	EventUserLogin    = "user.login"
	EventUserUpdate   = "user.update"
	EventUserPassword = "user.password"
	EventUserDelete   = "user.delete"
	EventPostCreate   = "post.create"
	EventPostUpdate   = "post.update"
	EventPostDelete   = "post.delete"
	EventSystemBackup = "system.backup"
)
