// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package usecase

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/ManuGH/idemflow/internal/domain/model"
	"github.com/ManuGH/idemflow/internal/domain/store"
	"github.com/ManuGH/idemflow/internal/log"
)

// OrderService runs the order lifecycle and keeps stock reservations in step
// with it: confirming reserves, cancelling a confirmed order releases.
type OrderService struct {
	orders store.Store[*model.Order]
	stock  *StockService
}

func NewOrderService(orders store.Store[*model.Order], stock *StockService) *OrderService {
	return &OrderService{orders: orders, stock: stock}
}

// Create applies the identity transition NEW -> NEW, consuming eventID, and
// adds items. Repeating creation with a fresh event id merges quantities.
func (s *OrderService) Create(ctx context.Context, eventID uuid.UUID, orderID string, items map[string]int) (out Outcome, err error) {
	defer func() { recordOutcome(model.KindOrder, out, err) }()

	if orderID == "" {
		return "", fmt.Errorf("%w: empty order id", ErrInvalidCommand)
	}
	for productID, qty := range items {
		if productID == "" || qty <= 0 {
			return "", fmt.Errorf("%w: item %q quantity %d", ErrInvalidCommand, productID, qty)
		}
	}

	o, found, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("load order %s: %w", orderID, err)
	}
	if !found {
		o = model.NewOrder(orderID)
	}
	if !o.ApplyEvent(eventID, model.OrderNew) {
		s.logNoOp(ctx, eventID, o, model.OrderNew)
		return OutcomeNoOp, nil
	}
	for _, productID := range slices.Sorted(maps.Keys(items)) {
		o.AddItem(productID, items[productID])
	}
	return s.commit(ctx, eventID, o, model.OrderNew)
}

// Confirm moves the order to CONFIRMED and reserves all of its items. If any
// reservation fails nothing is kept and the order is not saved.
func (s *OrderService) Confirm(ctx context.Context, eventID uuid.UUID, orderID string) (out Outcome, err error) {
	defer func() { recordOutcome(model.KindOrder, out, err) }()

	o, err := s.load(ctx, orderID)
	if err != nil {
		return "", err
	}
	if !o.ApplyEvent(eventID, model.OrderConfirmed) {
		s.logNoOp(ctx, eventID, o, model.OrderConfirmed)
		return OutcomeNoOp, nil
	}

	items := o.Items()
	if err := s.stock.ReserveAll(ctx, items); err != nil {
		return "", fmt.Errorf("confirm order %s: %w", orderID, err)
	}

	out, err = s.commit(ctx, eventID, o, model.OrderConfirmed)
	if err != nil {
		if rerr := s.stock.ReleaseAll(ctx, items); rerr != nil {
			logger := log.WithComponentFromContext(ctx, "order")
			logger.Error().
				Err(rerr).
				Str(log.FieldEvent, "order.compensation_failed").
				Str(log.FieldAggregateKey, orderID).
				Msg("reserved stock not returned after failed confirm")
		}
	}
	return out, err
}

// Cancel moves the order to CANCELLED. Stock reserved by a confirmation is
// released after the cancellation is committed.
func (s *OrderService) Cancel(ctx context.Context, eventID uuid.UUID, orderID string) (out Outcome, err error) {
	defer func() { recordOutcome(model.KindOrder, out, err) }()

	o, err := s.load(ctx, orderID)
	if err != nil {
		return "", err
	}
	wasConfirmed := o.Status() == model.OrderConfirmed
	if !o.ApplyEvent(eventID, model.OrderCancelled) {
		s.logNoOp(ctx, eventID, o, model.OrderCancelled)
		return OutcomeNoOp, nil
	}

	out, err = s.commit(ctx, eventID, o, model.OrderCancelled)
	if err != nil || !wasConfirmed {
		return out, err
	}
	if err := s.stock.ReleaseAll(ctx, o.Items()); err != nil {
		// The cancellation stands; the error reports the lost release.
		return out, fmt.Errorf("release stock for cancelled order %s: %w", orderID, err)
	}
	return out, nil
}

// Ship moves the order to SHIPPED.
func (s *OrderService) Ship(ctx context.Context, eventID uuid.UUID, orderID string) (out Outcome, err error) {
	defer func() { recordOutcome(model.KindOrder, out, err) }()

	o, err := s.load(ctx, orderID)
	if err != nil {
		return "", err
	}
	if !o.ApplyEvent(eventID, model.OrderShipped) {
		s.logNoOp(ctx, eventID, o, model.OrderShipped)
		return OutcomeNoOp, nil
	}
	return s.commit(ctx, eventID, o, model.OrderShipped)
}

// Get returns the committed order.
func (s *OrderService) Get(ctx context.Context, orderID string) (*model.Order, error) {
	return s.load(ctx, orderID)
}

func (s *OrderService) load(ctx context.Context, orderID string) (*model.Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: empty order id", ErrInvalidCommand)
	}
	o, found, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	if !found {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return o, nil
}

func (s *OrderService) commit(ctx context.Context, eventID uuid.UUID, o *model.Order, target model.OrderStatus) (Outcome, error) {
	logger := log.WithComponentFromContext(log.ContextWithEventID(ctx, eventID.String()), "order")
	if err := s.orders.Save(ctx, o); err != nil {
		if out := saveOutcome(err); out != "" {
			logger.Info().
				Err(err).
				Str(log.FieldEvent, "order.conflict").
				Str(log.FieldAggregateKey, o.Key()).
				Msg("concurrent update won")
			return out, err
		}
		return "", fmt.Errorf("save order %s: %w", o.Key(), err)
	}
	logger.Info().
		Str(log.FieldEvent, "order.applied").
		Str(log.FieldAggregateKey, o.Key()).
		Str(log.FieldNewState, string(target)).
		Uint64(log.FieldVersion, o.Version()+1).
		Msg("order transition committed")
	return OutcomeApplied, nil
}

func (s *OrderService) logNoOp(ctx context.Context, eventID uuid.UUID, o *model.Order, target model.OrderStatus) {
	logger := log.WithComponentFromContext(log.ContextWithEventID(ctx, eventID.String()), "order")
	logger.Debug().
		Str(log.FieldEvent, "order.noop").
		Str(log.FieldAggregateKey, o.Key()).
		Str(log.FieldOldState, string(o.Status())).
		Str(log.FieldNewState, string(target)).
		Bool("duplicate", o.HasApplied(eventID)).
		Msg("event not applied")
}
