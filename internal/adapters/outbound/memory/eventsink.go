// eventsink.go provides an in-memory implementation of CycleEventSink.
//
// This adapter stores all published cycle events in memory. It backs the
// CLI progress output and the tests:
//   - GetEvents(): Returns all published events
//   - GetEventsByKind(): Filters events by outcome kind
//   - SetOnPublish(): Register callback for each event
//
// All operations are thread-safe. For fan-out to other services, use the SNS adapter.
package memory

import (
	"context"
	"sync"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

// Compile-time check that EventSink implements outbound.CycleEventSink
var _ outbound.CycleEventSink = (*EventSink)(nil)

// EventSink is an in-memory implementation of the CycleEventSink port.
type EventSink struct {
	mu     sync.RWMutex
	events []entity.CycleEvent
	closed bool

	onPublish func(entity.CycleEvent)
}

// NewEventSink creates a new in-memory event sink.
func NewEventSink() *EventSink {
	return &EventSink{
		events: make([]entity.CycleEvent, 0),
	}
}

// Publish stores the event in memory.
func (s *EventSink) Publish(ctx context.Context, event entity.CycleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.events = append(s.events, event)

	if s.onPublish != nil {
		s.onPublish(event)
	}

	return nil
}

// Close marks the sink as closed.
func (s *EventSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// GetEvents returns all published events.
func (s *EventSink) GetEvents() []entity.CycleEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]entity.CycleEvent, len(s.events))
	copy(result, s.events)
	return result
}

// GetEventsByKind returns events filtered by outcome kind.
func (s *EventSink) GetEventsByKind(kind entity.OutcomeKind) []entity.CycleEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]entity.CycleEvent, 0)
	for _, e := range s.events {
		if e.Kind == kind {
			result = append(result, e)
		}
	}
	return result
}

// SetOnPublish registers a callback invoked for every published event.
// The callback runs while the sink's lock is held and must not publish.
func (s *EventSink) SetOnPublish(fn func(entity.CycleEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPublish = fn
}

// Clear removes all stored events.
func (s *EventSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make([]entity.CycleEvent, 0)
}
