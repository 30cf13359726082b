// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package strategy binds event types to the use cases that handle them.
package strategy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ManuGH/idemflow/internal/domain/event"
	"github.com/ManuGH/idemflow/internal/domain/model"
	"github.com/ManuGH/idemflow/internal/log"
	"github.com/ManuGH/idemflow/internal/router"
	"github.com/ManuGH/idemflow/internal/usecase"
)

// PaymentTargets maps payment event types to the status they request.
var PaymentTargets = map[string]model.PaymentStatus{
	event.TypePaymentAuthorized: model.PaymentAuthorized,
	event.TypePaymentApproved:   model.PaymentApproved,
	event.TypePaymentFailed:     model.PaymentFailed,
	event.TypePaymentRefunded:   model.PaymentRefunded,
}

// PaymentExecutor is satisfied by *usecase.ProcessPaymentEvent.
type PaymentExecutor interface {
	Execute(ctx context.Context, eventID uuid.UUID, paymentID string, target model.PaymentStatus) (usecase.Outcome, error)
}

// PaymentStrategy routes PAYMENT_* events to the payment use case.
type PaymentStrategy struct {
	uc PaymentExecutor
}

func NewPaymentStrategy(uc PaymentExecutor) *PaymentStrategy {
	return &PaymentStrategy{uc: uc}
}

func (s *PaymentStrategy) Name() string { return "payment-status" }

func (s *PaymentStrategy) Supports(ev event.Event) bool {
	_, ok := PaymentTargets[ev.Type()]
	return ok
}

// Execute returns store conflicts unchanged so callers can tell them apart.
func (s *PaymentStrategy) Execute(ctx context.Context, ev event.Event) error {
	target := PaymentTargets[ev.Type()]
	paymentID, err := ev.StringValue(event.KeyPaymentID)
	if err != nil {
		return fmt.Errorf("%s: %w", ev.Type(), err)
	}
	out, err := s.uc.Execute(ctx, ev.ID(), paymentID, target)
	if err != nil {
		return err
	}
	logOutcome(ctx, s.Name(), ev, paymentID, out)
	return nil
}

var _ router.Strategy = (*PaymentStrategy)(nil)

func logOutcome(ctx context.Context, name string, ev event.Event, key string, out usecase.Outcome) {
	logger := log.WithComponentFromContext(ctx, "strategy")
	logger.Debug().
		Str(log.FieldEvent, "strategy.outcome").
		Str(log.FieldStrategy, name).
		Str(log.FieldEventType, ev.Type()).
		Str(log.FieldAggregateKey, key).
		Str(log.FieldOutcome, out.String()).
		Msg("event handled")
}
