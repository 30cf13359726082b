// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/ManuGH/idemflow/internal/domain/ports"
	"github.com/ManuGH/idemflow/internal/metrics"
)

// Sender writes one record synchronously.
type Sender interface {
	Send(ctx context.Context, topic string, key, value []byte) error
}

// ProducerConfig configures a Producer.
type ProducerConfig struct {
	Brokers     []string
	ClientID    string
	StatusTopic string
}

// Producer publishes records and status notifications.
type Producer struct {
	client      *kgo.Client
	statusTopic string
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Brokers...)}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	topic := cfg.StatusTopic
	if topic == "" {
		topic = ports.TopicPaymentStatus
	}
	return &Producer{client: cl, statusTopic: topic}, nil
}

// Send waits for the broker acknowledgement.
func (p *Producer) Send(ctx context.Context, topic string, key, value []byte) error {
	rec := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		metrics.RecordKafkaRecord(topic, ResultFailed)
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	metrics.RecordKafkaRecord(topic, ResultProduced)
	return nil
}

// PublishStatusChanged keys the record by payment id so a payment's
// notifications stay on one partition.
func (p *Producer) PublishStatusChanged(ctx context.Context, ev ports.StatusChanged) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode status change: %w", err)
	}
	return p.Send(ctx, p.statusTopic, []byte(ev.PaymentID), body)
}

// Admin returns an admin client sharing the producer's connections.
func (p *Producer) Admin() *kadm.Client {
	return kadm.NewClient(p.client)
}

func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *Producer) Close() {
	p.client.Close()
}

var (
	_ ports.Publisher = (*Producer)(nil)
	_ Sender          = (*Producer)(nil)
)
