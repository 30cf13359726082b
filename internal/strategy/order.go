// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package strategy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ManuGH/idemflow/internal/domain/event"
	"github.com/ManuGH/idemflow/internal/router"
	"github.com/ManuGH/idemflow/internal/usecase"
)

// OrderHandler is satisfied by *usecase.OrderService.
type OrderHandler interface {
	Create(ctx context.Context, eventID uuid.UUID, orderID string, items map[string]int) (usecase.Outcome, error)
	Confirm(ctx context.Context, eventID uuid.UUID, orderID string) (usecase.Outcome, error)
	Cancel(ctx context.Context, eventID uuid.UUID, orderID string) (usecase.Outcome, error)
	Ship(ctx context.Context, eventID uuid.UUID, orderID string) (usecase.Outcome, error)
}

type orderAction func(ctx context.Context, ev event.Event, orderID string) (usecase.Outcome, error)

// OrderStrategy handles exactly one ORDER_* event type.
type OrderStrategy struct {
	name   string
	typ    string
	action orderAction
}

func (s *OrderStrategy) Name() string { return s.name }

func (s *OrderStrategy) Supports(ev event.Event) bool { return ev.Type() == s.typ }

func (s *OrderStrategy) Execute(ctx context.Context, ev event.Event) error {
	orderID, err := ev.StringValue(event.KeyOrderID)
	if err != nil {
		return fmt.Errorf("%s: %w", ev.Type(), err)
	}
	out, err := s.action(ctx, ev, orderID)
	if err != nil {
		return err
	}
	logOutcome(ctx, s.name, ev, orderID, out)
	return nil
}

// OrderStrategies returns the created, confirmed, cancelled and shipped
// strategies in that order.
func OrderStrategies(h OrderHandler) []router.Strategy {
	transition := func(fn func(context.Context, uuid.UUID, string) (usecase.Outcome, error)) orderAction {
		return func(ctx context.Context, ev event.Event, orderID string) (usecase.Outcome, error) {
			return fn(ctx, ev.ID(), orderID)
		}
	}
	return []router.Strategy{
		&OrderStrategy{
			name: "order-created",
			typ:  event.TypeOrderCreated,
			action: func(ctx context.Context, ev event.Event, orderID string) (usecase.Outcome, error) {
				items, err := ev.Quantities(event.KeyItems)
				if err != nil {
					return "", fmt.Errorf("%s: %w", ev.Type(), err)
				}
				return h.Create(ctx, ev.ID(), orderID, items)
			},
		},
		&OrderStrategy{name: "order-confirmed", typ: event.TypeOrderConfirmed, action: transition(h.Confirm)},
		&OrderStrategy{name: "order-cancelled", typ: event.TypeOrderCancelled, action: transition(h.Cancel)},
		&OrderStrategy{name: "order-shipped", typ: event.TypeOrderShipped, action: transition(h.Ship)},
	}
}
