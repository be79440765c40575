// Package events provides an asynchronous event bus that decouples record
// changes made by a page session from outbound publishers such as MQTT.
package events

import (
	"time"

	"github.com/afcommunity/fieldmap/internal/entity"
)

// Type identifies what happened to a record.
type Type string

const (
	TypeRecordCreated   Type = "record.created"
	TypeStatusUpdated   Type = "camera.status_updated"
	TypeCommunityJoined Type = "community.joined"
)

// RecordEvent describes one change observed by a session.
type RecordEvent struct {
	Type      Type
	Ref       entity.Ref
	Record    entity.Record
	Page      string
	Timestamp time.Time
	Metadata  map[string]any
}

// NewRecordEvent stamps a record event with the current time.
func NewRecordEvent(t Type, page string, rec entity.Record) RecordEvent {
	return RecordEvent{
		Type:      t,
		Ref:       entity.RefOf(rec),
		Record:    rec,
		Page:      page,
		Timestamp: time.Now(),
	}
}

// Consumer processes events taken off the bus.
type Consumer interface {
	// Name identifies the consumer in logs; names must be unique per bus
	Name() string

	// ProcessEvent handles a single event
	ProcessEvent(event RecordEvent) error
}

// Publisher is the producer side of the bus.
type Publisher interface {
	TryPublish(event RecordEvent) bool
}

// BusStats contains runtime statistics for monitoring
type BusStats struct {
	EventsReceived   uint64
	EventsSuppressed uint64
	EventsProcessed  uint64
	EventsDropped    uint64
	ConsumerErrors   uint64
}
