package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/models"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// EventType defines the type of event
type EventType string

const (
	EventTypeMergeCompleted EventType = "merge.completed"
	EventTypeMergeFailed    EventType = "merge.failed"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID       string    `json:"event_id"`
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
	JobID         string    `json:"job_id,omitempty"`
	Origin        string    `json:"origin"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

func newBaseEvent(eventType EventType, jobID, origin, correlationID string) BaseEvent {
	return BaseEvent{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		Timestamp:     time.Now().UTC(),
		JobID:         jobID,
		Origin:        origin,
		CorrelationID: correlationID,
	}
}

// MergeCompletedEvent carries a finished merge run
type MergeCompletedEvent struct {
	BaseEvent
	Fingerprint string                `json:"fingerprint,omitempty"`
	Cached      bool                  `json:"cached"`
	Result      *models.MergeResponse `json:"result"`
}

// MergeFailedEvent is emitted when a merge job cannot produce a result
type MergeFailedEvent struct {
	BaseEvent
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}
