// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package kafka

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/idemflow/internal/domain/model"
	"github.com/ManuGH/idemflow/internal/log"
)

// EnvProducerEnabled switches the demo producer on.
const EnvProducerEnabled = "KAFKA_PRODUCER_ENABLED"

// ProducerEnabledFromEnv accepts "true" or "1", case-insensitively.
func ProducerEnabledFromEnv() bool {
	return parseEnabled(os.Getenv(EnvProducerEnabled))
}

func parseEnabled(v string) bool {
	v = strings.TrimSpace(v)
	return v == "1" || strings.EqualFold(v, "true")
}

// ScenarioProducer replays the payment scenarios onto a topic so the
// listener can be exercised end to end.
type ScenarioProducer struct {
	sender Sender
	topic  string
}

func NewScenarioProducer(s Sender, topic string) *ScenarioProducer {
	if topic == "" {
		topic = TopicPaymentEvents
	}
	return &ScenarioProducer{sender: s, topic: topic}
}

// Run sends the four scenarios in order and stops at the first send error.
func (p *ScenarioProducer) Run(ctx context.Context) error {
	logger := log.WithComponent("kafka-producer")
	logger.Info().
		Str(log.FieldEvent, "producer.start").
		Str(log.FieldTopic, p.topic).
		Msg("starting payment scenarios")

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"concurrent same event", p.concurrentSameEvent},
		{"idempotent replay", p.idempotentReplay},
		{"out of order", p.outOfOrder},
		{"concurrent different events", p.concurrentDifferentEvents},
	}
	for i, step := range steps {
		logger.Info().
			Str(log.FieldEvent, "producer.scenario").
			Int("scenario", i+1).
			Msg(step.name)
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("scenario %d (%s): %w", i+1, step.name, err)
		}
	}
	logger.Info().Str(log.FieldEvent, "producer.done").Msg("payment scenarios sent")
	return nil
}

func (p *ScenarioProducer) send(ctx context.Context, eventID uuid.UUID, paymentID string, status model.PaymentStatus) error {
	body, err := EncodePaymentEvent(eventID, paymentID, status)
	if err != nil {
		return err
	}
	if err := p.sender.Send(ctx, p.topic, []byte(paymentID), body); err != nil {
		return err
	}
	logger := log.WithComponentFromContext(ctx, "kafka-producer")
	logger.Debug().
		Str(log.FieldEvent, "producer.sent").
		Str(log.FieldEventID, eventID.String()).
		RawJSON("body", body).
		Msg("sent")
	return nil
}

// together starts every fn at once and waits for all of them.
func together(ctx context.Context, fns ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	start := make(chan struct{})
	for _, fn := range fns {
		g.Go(func() error {
			<-start
			return fn(gctx)
		})
	}
	close(start)
	return g.Wait()
}

func (p *ScenarioProducer) concurrentSameEvent(ctx context.Context) error {
	const paymentID = "kafka-payment-1"
	eventID := uuid.New()
	send := func(ctx context.Context) error { return p.send(ctx, eventID, paymentID, model.PaymentAuthorized) }
	return together(ctx, send, send)
}

func (p *ScenarioProducer) idempotentReplay(ctx context.Context) error {
	const paymentID = "kafka-payment-2"
	eventID := uuid.New()
	if err := p.send(ctx, eventID, paymentID, model.PaymentAuthorized); err != nil {
		return err
	}
	return p.send(ctx, eventID, paymentID, model.PaymentAuthorized)
}

func (p *ScenarioProducer) outOfOrder(ctx context.Context) error {
	const paymentID = "kafka-payment-3"
	if err := p.send(ctx, uuid.New(), paymentID, model.PaymentApproved); err != nil {
		return err
	}
	return p.send(ctx, uuid.New(), paymentID, model.PaymentAuthorized)
}

func (p *ScenarioProducer) concurrentDifferentEvents(ctx context.Context) error {
	const paymentID = "kafka-payment-4"
	return together(ctx,
		func(ctx context.Context) error { return p.send(ctx, uuid.New(), paymentID, model.PaymentAuthorized) },
		func(ctx context.Context) error { return p.send(ctx, uuid.New(), paymentID, model.PaymentFailed) },
	)
}
