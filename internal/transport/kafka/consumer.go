// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/idemflow/internal/log"
	"github.com/ManuGH/idemflow/internal/metrics"
	"github.com/ManuGH/idemflow/internal/telemetry"
)

// ConsumerConfig configures a group consumer.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topics   []string
	ClientID string
}

// Consumer polls a consumer group and hands every record to a Handler.
// Offsets are committed after each poll regardless of handler errors, so a
// poison record is logged once and never redelivered.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	tracer  trace.Tracer
}

// NewConsumer creates the underlying client; it does not contact the brokers
// until Run.
func NewConsumer(cfg ConsumerConfig, handler Handler) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if len(cfg.Topics) == 0 {
		return nil, errors.New("kafka: no topics to consume")
	}
	group := cfg.GroupID
	if group == "" {
		group = DefaultGroupID
	}
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.DisableAutoCommit(),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return &Consumer{
		client:  cl,
		handler: handler,
		tracer:  telemetry.Tracer(telemetry.InstrumentationName),
	}, nil
}

// Ping checks broker connectivity.
func (c *Consumer) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

// Run blocks until ctx is done or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	logger := log.WithComponent("kafka")
	logger.Info().Str(log.FieldEvent, "kafka.consumer_started").Msg("consumer started")
	defer c.client.Close()

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			logger.Error().
				Err(err).
				Str(log.FieldEvent, "kafka.fetch_error").
				Str(log.FieldTopic, topic).
				Int32(log.FieldPartition, partition).
				Msg("fetch failed")
		})
		fetches.EachRecord(func(r *kgo.Record) {
			handle(ctx, c.tracer, c.handler, messageFromRecord(r))
		})
		if err := c.client.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			logger.Error().
				Err(err).
				Str(log.FieldEvent, "kafka.commit_failed").
				Msg("offset commit failed")
		}
	}
}

// handle runs one message through h with a span, a log line on failure and a
// metric. It never returns an error: the record is committed either way.
func handle(ctx context.Context, tracer trace.Tracer, h Handler, msg *Message) string {
	ctx, span := tracer.Start(ctx, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(telemetry.RecordAttributes(msg.Topic, msg.Partition, msg.Offset)...))
	defer span.End()

	err := h.Handle(ctx, msg)
	result := resultOf(err)
	metrics.RecordKafkaRecord(msg.Topic, result)
	if err != nil && result != ResultSkipped {
		span.RecordError(err)
		logger := log.WithComponentFromContext(ctx, "kafka")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "kafka.record_failed").
			Str(log.FieldTopic, msg.Topic).
			Int32(log.FieldPartition, msg.Partition).
			Int64(log.FieldOffset, msg.Offset).
			Str("result", result).
			Msg("failed to process kafka record")
	}
	return result
}
