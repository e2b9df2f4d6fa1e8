// Package domain defines the domain events published after successful writes.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published on the events topic.
const (
	EventNoteAdded           = "note_added"
	EventNoteUpdated         = "note_updated"
	EventNoteDeleted         = "note_deleted"
	EventMaintenanceRecorded = "maintenance_recorded"
	EventMaintenanceUpdated  = "maintenance_updated"
	EventMaintenanceDeleted  = "maintenance_deleted"
	EventUserAccessUpdated   = "user_access_updated"
	EventSyncFinished        = "sync_finished"
	EventHTTPRequest         = "http_request"
)

// Event is one domain event. Metadata is free-form JSON.
type Event struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Source    string          `json:"source"`
	Username  string          `json:"username,omitempty"`
	DeviceID  string          `json:"device_id,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// New builds an event stamped with a fresh ID and the current UTC time. metadata is marshaled
// to JSON; a value that cannot be marshaled is dropped.
func New(eventType, source, username, deviceID string, metadata any) *Event {
	e := &Event{
		ID:        uuid.New().String(),
		EventType: eventType,
		Source:    source,
		Username:  username,
		DeviceID:  deviceID,
		CreatedAt: time.Now().UTC(),
	}
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			e.Metadata = b
		}
	}
	return e
}

// Key returns the partition key: the device when set, otherwise the username.
func (e *Event) Key() string {
	if e.DeviceID != "" {
		return e.DeviceID
	}
	return e.Username
}
