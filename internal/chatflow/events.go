package chatflow

import "github.com/set-night/copydesk/internal/domain"

type EventKind string

const (
	EventMessage  EventKind = "message"
	EventState    EventKind = "state"
	EventThinking EventKind = "thinking"
	EventClosed   EventKind = "closed"
)

// Event is pushed to subscribers on every observable change.
type Event struct {
	Kind     EventKind       `json:"kind"`
	Message  *domain.Message `json:"message,omitempty"`
	State    State           `json:"state"`
	Thinking bool            `json:"thinking,omitempty"`
}

const subscriberBuffer = 64
