// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package kafka adapts Kafka topics to the payment use case and the event
// router, and publishes status notifications back out.
package kafka

import (
	"context"
	"errors"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/ManuGH/idemflow/internal/log"
)

// Default topic and group names.
const (
	TopicPaymentEvents = "payment-events"
	TopicDomainEvents  = "domain-events"
	DefaultGroupID     = "backend-group"
)

// Record results reported to metrics.
const (
	ResultProcessed = "processed"
	ResultInvalid   = "invalid"
	ResultFailed    = "failed"
	ResultSkipped   = "skipped"
	ResultProduced  = "produced"
)

// ErrInvalidRecord marks records that can never succeed (bad JSON, bad ids,
// unknown status names).
var ErrInvalidRecord = errors.New("invalid record")

// Message is the broker independent view of one consumed record.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Partition int32
	Offset    int64
}

func messageFromRecord(r *kgo.Record) *Message {
	return &Message{
		Topic:     r.Topic,
		Key:       r.Key,
		Value:     r.Value,
		Partition: r.Partition,
		Offset:    r.Offset,
	}
}

// Handler processes one message. The consumer commits the record whatever the
// handler returns; errors are only logged and counted.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error { return f(ctx, msg) }

// TopicRouter dispatches messages to per-topic handlers.
type TopicRouter struct {
	handlers map[string]Handler
}

func NewTopicRouter() *TopicRouter {
	return &TopicRouter{handlers: make(map[string]Handler)}
}

// Register binds a handler to a topic, replacing any previous one.
func (r *TopicRouter) Register(topic string, h Handler) {
	r.handlers[topic] = h
}

// Topics lists the registered topics.
func (r *TopicRouter) Topics() []string {
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	return out
}

// Handle skips messages for unregistered topics so they get committed.
func (r *TopicRouter) Handle(ctx context.Context, msg *Message) error {
	h, ok := r.handlers[msg.Topic]
	if !ok {
		logger := log.WithComponentFromContext(ctx, "kafka")
		logger.Warn().
			Str(log.FieldEvent, "kafka.no_handler").
			Str(log.FieldTopic, msg.Topic).
			Msg("no handler for topic, skipping record")
		return errSkipped
	}
	return h.Handle(ctx, msg)
}

var errSkipped = errors.New("skipped")

func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultProcessed
	case errors.Is(err, errSkipped):
		return ResultSkipped
	case errors.Is(err, ErrInvalidRecord):
		return ResultInvalid
	default:
		return ResultFailed
	}
}
