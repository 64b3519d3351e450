package models

import "time"

// Event represents a loggable action in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "task.create", "auth.login"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	UserID    *int64    `json:"userId,omitempty"` // Nullable for system-wide events
	CreatedAt time.Time `json:"createdAt"`
}
