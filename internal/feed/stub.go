package feed

import "context"

// StubSource replays a fixed event sequence, for tests and offline
// scans. It returns ErrEndOfStream after the last event.
type StubSource struct {
	events []Event
	next   int
}

// NewStubSource returns a source replaying events in order.
func NewStubSource(events ...Event) *StubSource {
	return &StubSource{events: events}
}

func (s *StubSource) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	if s.next >= len(s.events) {
		return Event{}, ErrEndOfStream
	}
	ev := s.events[s.next]
	s.next++
	return ev, nil
}

func (s *StubSource) Close() error { return nil }

// Compile-time interface checks.
var (
	_ Source = (*StubSource)(nil)
	_ Source = (*WSSource)(nil)
	_ Source = (*KafkaSource)(nil)
)
