// Package events publishes session lifecycle events to other services.
package events

import (
	"context"
	"sync"
	"time"
)

// Event types.
const (
	// TypeIngested is emitted after an extraction is committed to a session.
	TypeIngested = "session.ingested"
	// TypeTurn is emitted after a chat exchange completes or fails.
	TypeTurn = "session.turn"
	// TypeDeleted is emitted when a session is removed.
	TypeDeleted = "session.deleted"
)

// Event is one domain event.
type Event struct {
	Type       string         `json:"type"`
	SessionID  string         `json:"session_id"`
	DocumentID string         `json:"document_id,omitempty"`
	At         time.Time      `json:"at"`
	Data       map[string]any `json:"data,omitempty"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// Noop discards every event.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, Event) error { return nil }

// Close does nothing.
func (Noop) Close() {}

// Recorder keeps published events in memory. It is useful in tests and for
// local inspection.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish stores the event.
func (r *Recorder) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Close does nothing.
func (r *Recorder) Close() {}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
