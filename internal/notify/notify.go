// Package notify delivers alert events to external sinks.
package notify

import (
	"context"

	"anubis-watch/internal/domain"
)

// Notifier delivers an alert to a sink. Delivery is best-effort:
// callers treat errors as non-fatal and the alert record stays
// persisted either way.
type Notifier interface {
	Notify(ctx context.Context, a *domain.AlertEvent) error
}

// Nop discards alerts. Used when no webhook is configured.
type Nop struct{}

func (Nop) Notify(context.Context, *domain.AlertEvent) error { return nil }
