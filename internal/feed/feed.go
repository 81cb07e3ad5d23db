// Package feed adapts external event streams into launch and outcome
// events. Adapters share one Source interface so the pipeline does not
// care whether events arrive over WebSocket, Kafka or a replay fixture.
package feed

import (
	"context"
	"errors"

	"anubis-watch/internal/domain"
)

// ErrEndOfStream signals a source that is exhausted rather than
// failed. Live sources never return it; replay sources return it after
// the last fixture event.
var ErrEndOfStream = errors.New("feed: end of stream")

// Event is one message from a feed: exactly one of Launch or Outcome
// is set.
type Event struct {
	Launch  *domain.LaunchEvent
	Outcome *domain.TokenOutcome
}

// Source yields feed events in arrival order.
type Source interface {
	// Next blocks until an event is available, the context is
	// cancelled, or the stream ends.
	Next(ctx context.Context) (Event, error)

	Close() error
}
