// Package event carries batch progress notifications from the runner
// and the engine adapters to whoever is watching (the CLI progress
// printer, primarily).
package event

import "sync"

// Type defines the kind of event
type Type string

const (
	TypeBatchStarted   Type = "batch-started"
	TypeBatchCompleted Type = "batch-completed"
	TypeRunStarted     Type = "run-started"
	TypeRunProgress    Type = "run-progress"
	TypeRunCompleted   Type = "run-completed"
	TypeRunFailed      Type = "run-failed"
	TypeRunCanceled    Type = "run-canceled"
	TypeExtractStarted Type = "extract-started"
	TypeExtractDone    Type = "extract-done"
)

// Event is one progress notification
type Event struct {
	Type Type `json:"type"`
	// Scenario is the scenario name, empty for batch-level events
	Scenario string `json:"scenario,omitempty"`
	// Message is a human-readable description
	Message string `json:"message,omitempty"`
	// Percent is engine progress 0-100, -1 when unknown
	Percent float64 `json:"percent,omitempty"`
	Payload any     `json:"payload,omitempty"`
}

// Bus allows publishing and subscribing to events. Publish never
// blocks: subscribers that fall behind miss events.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe adds a subscriber channel to receive events
func (b *Bus) Subscribe(ch chan<- Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, ch)
}

// Publish sends an event to all subscribers
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			// Subscriber is slow, skip
		}
	}
}
