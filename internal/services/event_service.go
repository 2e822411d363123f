package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jfelder/gatekeep-be/internal/models"
	"github.com/jfelder/gatekeep-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// Audit event types.
const (
	EventLogin       = "user.login"
	EventLoginFailed = "user.login_failed"
	EventLogout      = "user.logout"
	EventUserCreated = "user.created"
	EventUserRemoved = "user.removed"
	EventBackup      = "backup.created"
)

// EventServiceProvider defines the interface for audit event services.
type EventServiceProvider interface {
	RecordEvent(eventType, level, message, actor string)
	GetRecentEvents(limit int) ([]models.Event, error)
}

// EventService writes audit events to the database and pushes them to the
// live dashboard feed.
type EventService struct {
	db  *sql.DB
	hub *websocket.Hub
}

// NewEventService creates a new EventService. The hub may be nil when no
// live feed is wanted.
func NewEventService(db *sql.DB, hub *websocket.Hub) *EventService {
	return &EventService{db: db, hub: hub}
}

// RecordEvent stores an audit event. Audit failures are logged but never
// surfaced to the request that triggered them.
func (s *EventService) RecordEvent(eventType, level, message, actor string) {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		Actor:     actor,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec("INSERT INTO events (id, type, level, message, actor, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.Actor, event.CreatedAt)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record audit event")
		return
	}

	if s.hub != nil {
		if payload, err := websocket.NewEventMessage(event); err == nil {
			s.hub.Broadcast <- payload
		}
	}
}

// GetRecentEvents retrieves the most recent audit events, newest first.
func (s *EventService) GetRecentEvents(limit int) ([]models.Event, error) {
	rows, err := s.db.Query("SELECT id, type, level, message, actor, created_at FROM events ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.Actor, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
