// Package memory provides an in-memory audit sink for tests and
// single-process deployments without a broker.
package memory

import (
	"context"
	"sync"

	"custodia/internal/platform/audit"
)

// Sink accumulates events in order of arrival.
type Sink struct {
	mu     sync.Mutex
	events []audit.Event
}

// New creates an empty in-memory sink.
func New() *Sink {
	return &Sink{}
}

// Append implements audit.Sink.
func (s *Sink) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything appended so far.
func (s *Sink) Events() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Event(nil), s.events...)
}
