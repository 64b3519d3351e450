package models

import "time"

// Task is a single to-do item owned by exactly one user.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UserID      int64     `json:"userId"`
}

// TaskUpdate carries the optional fields of a partial task update. A nil
// field means "leave unchanged".
type TaskUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}
