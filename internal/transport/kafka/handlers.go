// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ManuGH/idemflow/internal/domain/event"
	"github.com/ManuGH/idemflow/internal/domain/model"
	"github.com/ManuGH/idemflow/internal/log"
	"github.com/ManuGH/idemflow/internal/usecase"
)

// PaymentUseCase is satisfied by *usecase.ProcessPaymentEvent.
type PaymentUseCase interface {
	Execute(ctx context.Context, eventID uuid.UUID, paymentID string, target model.PaymentStatus) (usecase.Outcome, error)
}

// EventRouter is satisfied by *router.Router.
type EventRouter interface {
	Route(ctx context.Context, ev event.Event) error
}

// PaymentHandler feeds payment-events records into the payment use case.
type PaymentHandler struct {
	uc PaymentUseCase
}

func NewPaymentHandler(uc PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

func (h *PaymentHandler) Handle(ctx context.Context, msg *Message) error {
	cmd, err := DecodePaymentEvent(msg.Value)
	if err != nil {
		return err
	}
	ctx = log.ContextWithEventID(ctx, cmd.EventID.String())
	logger := log.WithComponentFromContext(ctx, "kafka")
	logger.Info().
		Str(log.FieldEvent, "kafka.payment_received").
		Str(log.FieldAggregateKey, cmd.PaymentID).
		Str(log.FieldNewState, string(cmd.Status)).
		Msg("payment event received")

	out, err := h.uc.Execute(ctx, cmd.EventID, cmd.PaymentID, cmd.Status)
	if err != nil {
		return err
	}
	logger.Debug().
		Str(log.FieldEvent, "kafka.payment_handled").
		Str(log.FieldAggregateKey, cmd.PaymentID).
		Str(log.FieldOutcome, out.String()).
		Msg("payment event handled")
	return nil
}

// EventHandler feeds domain-events envelopes into the router.
type EventHandler struct {
	router EventRouter
}

func NewEventHandler(r EventRouter) *EventHandler {
	return &EventHandler{router: r}
}

func (h *EventHandler) Handle(ctx context.Context, msg *Message) error {
	ev, err := DecodeEnvelope(msg.Value)
	if err != nil {
		return err
	}
	return h.router.Route(ctx, ev)
}

// DecodeEnvelope parses an event envelope. Every failure wraps
// ErrInvalidRecord.
func DecodeEnvelope(value []byte) (event.Event, error) {
	var env event.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return event.Event{}, fmt.Errorf("%w: decode envelope: %v", ErrInvalidRecord, err)
	}
	ev, err := event.FromEnvelope(env)
	if err != nil {
		return event.Event{}, errors.Join(ErrInvalidRecord, err)
	}
	return ev, nil
}
