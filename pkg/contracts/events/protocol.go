// Package events contains event contract definitions for WebSocket
// communication between the collection service and its clients.
package events

import (
	"encoding/json"
	"time"
)

// Event types broadcast over the hub. Payloads are operation snapshots
// from the domain package.
const (
	EventTypeOperationStatus   = "operation:status"
	EventTypeOperationProgress = "operation:progress"
	EventTypeOperationComplete = "operation:complete"
	EventTypeOperationError    = "operation:error"
	EventTypeConnected         = "connection:established"
)

// Message is the envelope for every frame sent to a client.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage wraps a payload in an envelope, stamping the current time.
// Marshal failures are reported as an error payload rather than dropped
// silently.
func NewMessage(eventType string, payload interface{}) Message {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw, _ = json.Marshal(map[string]string{"error": err.Error()})
		eventType = EventTypeOperationError
	}
	return Message{
		Type:      eventType,
		Payload:   raw,
		Timestamp: time.Now(),
	}
}

// ProgressEvent reports incremental progress of a running step, e.g.
// one instrument fetched or one portal batch exported.
type ProgressEvent struct {
	OperationID string  `json:"operation_id"`
	StepID      string  `json:"step_id"`
	Progress    float64 `json:"progress"`
	Message     string  `json:"message,omitempty"`
	Current     int     `json:"current,omitempty"`
	Total       int     `json:"total,omitempty"`
}
