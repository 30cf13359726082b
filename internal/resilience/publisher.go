// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resilience

import (
	"context"
	"fmt"

	"github.com/ManuGH/idemflow/internal/domain/ports"
)

// GuardedPublisher fails fast while the wrapped publisher's breaker is open,
// so an unreachable broker does not stall every committed transition for a
// full produce timeout.
type GuardedPublisher struct {
	next    ports.Publisher
	breaker *CircuitBreaker
}

func NewGuardedPublisher(next ports.Publisher, breaker *CircuitBreaker) *GuardedPublisher {
	return &GuardedPublisher{next: next, breaker: breaker}
}

func (g *GuardedPublisher) PublishStatusChanged(ctx context.Context, ev ports.StatusChanged) error {
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.next.PublishStatusChanged(ctx, ev)
	})
	if err == ErrCircuitOpen {
		return fmt.Errorf("status change %s dropped: %w", ev.EventID, err)
	}
	return err
}

var _ ports.Publisher = (*GuardedPublisher)(nil)
