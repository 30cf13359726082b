// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ManuGH/idemflow/internal/domain/model"
	"github.com/ManuGH/idemflow/internal/domain/ports"
	"github.com/ManuGH/idemflow/internal/domain/store"
	"github.com/ManuGH/idemflow/internal/log"
)

// ProcessPaymentEvent applies one payment status event: load-or-create,
// apply, save. There is no automatic retry on conflict.
type ProcessPaymentEvent struct {
	payments  store.Store[*model.Payment]
	publisher ports.Publisher
}

// NewProcessPaymentEvent wires the use case. publisher may be nil.
func NewProcessPaymentEvent(payments store.Store[*model.Payment], publisher ports.Publisher) *ProcessPaymentEvent {
	return &ProcessPaymentEvent{payments: payments, publisher: publisher}
}

// Execute returns OutcomeApplied, OutcomeNoOp, or OutcomeConflict together
// with the store's conflict error unchanged. Other failures return an empty
// outcome and a wrapped error.
func (uc *ProcessPaymentEvent) Execute(ctx context.Context, eventID uuid.UUID, paymentID string, target model.PaymentStatus) (out Outcome, err error) {
	defer func() { recordOutcome(model.KindPayment, out, err) }()

	if paymentID == "" {
		return "", fmt.Errorf("%w: empty payment id", ErrInvalidCommand)
	}
	logger := log.WithComponentFromContext(log.ContextWithEventID(ctx, eventID.String()), "payment")

	p, found, err := uc.payments.FindByID(ctx, paymentID)
	if err != nil {
		return "", fmt.Errorf("load payment %s: %w", paymentID, err)
	}
	if !found {
		p = model.NewPayment(paymentID)
	}

	prev := p.Status()
	if !p.ApplyEvent(eventID, target) {
		logger.Debug().
			Str(log.FieldEvent, "payment.noop").
			Str(log.FieldAggregateKey, paymentID).
			Str(log.FieldOldState, string(prev)).
			Str(log.FieldNewState, string(target)).
			Bool("duplicate", p.HasApplied(eventID)).
			Msg("event not applied")
		return OutcomeNoOp, nil
	}

	if err := uc.payments.Save(ctx, p); err != nil {
		if o := saveOutcome(err); o != "" {
			logger.Info().
				Err(err).
				Str(log.FieldEvent, "payment.conflict").
				Str(log.FieldAggregateKey, paymentID).
				Msg("concurrent update won")
			return o, err
		}
		return "", fmt.Errorf("save payment %s: %w", paymentID, err)
	}

	committed := p.Version() + 1
	logger.Info().
		Str(log.FieldEvent, "payment.applied").
		Str(log.FieldAggregateKey, paymentID).
		Str(log.FieldOldState, string(prev)).
		Str(log.FieldNewState, string(target)).
		Uint64(log.FieldVersion, committed).
		Msg("payment transition committed")

	if uc.publisher != nil {
		notice := ports.StatusChanged{
			EventID:   eventID.String(),
			PaymentID: paymentID,
			Status:    string(target),
			Version:   committed,
		}
		if perr := uc.publisher.PublishStatusChanged(ctx, notice); perr != nil {
			logger.Warn().
				Err(perr).
				Str(log.FieldEvent, "payment.publish_failed").
				Str(log.FieldAggregateKey, paymentID).
				Msg("status notification not delivered")
		}
	}
	return OutcomeApplied, nil
}

// Get returns the committed payment.
func (uc *ProcessPaymentEvent) Get(ctx context.Context, paymentID string) (*model.Payment, error) {
	p, found, err := uc.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
	}
	return p, nil
}
