// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"

	"github.com/ManuGH/idemflow/internal/domain/ports"
)

// StatusPublisher adapts a Bus to ports.Publisher.
type StatusPublisher struct {
	inner Bus
	topic string
}

func NewStatusPublisher(b Bus, topic string) *StatusPublisher {
	if topic == "" {
		topic = ports.TopicPaymentStatus
	}
	return &StatusPublisher{inner: b, topic: topic}
}

func (p *StatusPublisher) PublishStatusChanged(ctx context.Context, ev ports.StatusChanged) error {
	return p.inner.Publish(ctx, p.topic, ev)
}

var _ ports.Publisher = (*StatusPublisher)(nil)
