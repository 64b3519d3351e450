package models

import "time"

// User represents a user account in the system.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt"`
}

// DebugUser is the sanitized user shape returned by the debug listing. It
// reports whether a password hash exists without ever carrying the hash.
type DebugUser struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	HasPassword bool   `json:"hasPassword"`
}
