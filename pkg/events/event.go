package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "INDEX_REBUILT").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic Event implementation used across the system.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const (
	// TypeIndexRebuilt is emitted by the ingestion job after a tenant's
	// vector index has been replaced.
	TypeIndexRebuilt = "INDEX_REBUILT"

	// TypeSessionRotated names the in-process topic carrying session id
	// rotations, which leave history under the old scope behind.
	TypeSessionRotated = "CHAT_SESSION_ROTATED"
)

// NewIndexRebuilt builds the event announcing a fresh index for a tenant.
func NewIndexRebuilt(tenantID string, chunks int) Event {
	return BaseEvent{
		Type: TypeIndexRebuilt,
		Data: map[string]interface{}{
			"tenant_id": tenantID,
			"chunks":    chunks,
		},
		OccurredAt: time.Now(),
	}
}
