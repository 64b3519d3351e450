package services

import (
	"database/sql"
	"testing"

	"github.com/gcOssi/spark6/internal/database"
)

// newTestDB opens a fresh in-memory database with the full schema.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(":memory:")
	if err != nil {
		t.Fatalf("database.New() unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("database.Migrate() unexpected error: %v", err)
	}
	return db
}

// newTestServices wires the three services against one test database.
func newTestServices(t *testing.T) (*UserService, *TaskService, *EventService) {
	t.Helper()

	db := newTestDB(t)
	events := NewEventService(db)
	return NewUserService(db, events), NewTaskService(db, events), events
}
