package telemetry

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the client.
const (
	EventAPIRequest      = "api_request"
	EventAPIUnauthorized = "api_unauthorized"
	EventSessionLogin    = "session_login"
	EventSessionLogout   = "session_logout"
)

// Event is one client telemetry record. It is serialized as JSON for Kafka and Loki.
type Event struct {
	ID     string `json:"id"`
	Type   string `json:"eventType"`
	Source string `json:"source"`
	// SessionFingerprint is security.TokenFingerprint of the active token, never the token itself.
	SessionFingerprint string          `json:"sessionFingerprint,omitempty"`
	BackendURL         string          `json:"backendUrl,omitempty"`
	Metadata           json.RawMessage `json:"metadata,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// NewEvent returns an event with a fresh ID and the current UTC time. metadata is marshaled
// to JSON; a marshal failure leaves Metadata empty.
func NewEvent(eventType, source string, metadata any) *Event {
	e := &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			e.Metadata = b
		}
	}
	return e
}
