package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gcOssi/spark6/internal/models"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(eventType, level, message string, userID *int64) error
	GetRecentEvents(limit int) ([]models.Event, error)
	CountEvents() (int, error)
}

// recordEvent writes an audit event. A failed write is logged and swallowed;
// the audit trail never fails the operation that produced it.
func recordEvent(events EventServiceProvider, eventType, level, message string, userID *int64) {
	if err := events.CreateEvent(eventType, level, message, userID); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}

// EventService records an audit trail of auth and task activity.
type EventService struct {
	db *sql.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// CreateEvent logs a new event to the events table.
func (s *EventService) CreateEvent(eventType, level, message string, userID *int64) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		"INSERT INTO events (id, type, level, message, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.UserID, event.CreatedAt,
	)
	return err
}

// GetRecentEvents retrieves the most recent events, newest first.
func (s *EventService) GetRecentEvents(limit int) ([]models.Event, error) {
	rows, err := s.db.Query(
		"SELECT id, type, level, message, user_id, created_at FROM events ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.UserID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// CountEvents returns the total number of recorded events.
func (s *EventService) CountEvents() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count)
	return count, err
}
