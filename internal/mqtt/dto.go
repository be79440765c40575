package mqtt

import (
	"time"

	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/events"
)

// RecordEventDTO is the payload published for a record event. Field names
// are part of the topic contract with subscribers.
type RecordEventDTO struct {
	Event     string         `json:"event"`
	Kind      string         `json:"kind"`
	Key       string         `json:"key"`
	Mode      string         `json:"mode"`
	Page      string         `json:"page"`
	Timestamp string         `json:"timestamp"`
	Record    entity.Record  `json:"record,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewRecordEventDTO converts a bus event into its published form.
func NewRecordEventDTO(ev events.RecordEvent) *RecordEventDTO {
	return &RecordEventDTO{
		Event:     string(ev.Type),
		Kind:      ev.Ref.Kind.String(),
		Key:       ev.Ref.Key,
		Mode:      ev.Ref.String(),
		Page:      ev.Page,
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
		Record:    ev.Record,
		Metadata:  ev.Metadata,
	}
}
