package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the generation orchestrators.
const (
	// EventTypeRunCompleted is emitted once per orchestrator run, whether
	// the run finished normally or aborted with an error.
	EventTypeRunCompleted = "generation_run_completed"
)

// RunCompletedPayload carries the outcome of a single generation run.
// It is serialized into the event payload so handlers can persist or
// aggregate run outcomes without depending on the generation package.
type RunCompletedPayload struct {
	Region         string  `json:"region"`
	Kind           string  `json:"kind"`
	Status         string  `json:"status"`
	Requested      int     `json:"requested"`
	NewItems       int     `json:"new_items"`
	Total          int     `json:"total"`
	CompletionRate float64 `json:"completion_rate"`
	DurationMS     int64   `json:"duration_ms"`
	Error          string  `json:"error,omitempty"`
}

// RunEvent represents something that happened during a generation run.
// It contains the event data serialized as JSON so emitters and handlers
// stay decoupled from each other's concrete types.
type RunEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates the kind of event (see the EventType constants)
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *RunEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewRunEvent creates a new RunEvent with the specified type and payload.
func NewRunEvent(eventType string, payload interface{}) (*RunEvent, error) {
	// Serialize the payload to JSON
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &RunEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// Handler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *RunEvent) error
}

// Emitter defines an interface for components that can emit events.
// This allows the orchestrators to publish run outcomes without direct
// knowledge of handlers.
type Emitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *RunEvent) error
}
