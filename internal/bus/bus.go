// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bus is a small in-process pub/sub used as the default outbound sink
// when Kafka is disabled, and by tests that observe notifications.
package bus

import "context"

// Message is any value published on a topic.
type Message = any

// Bus publishes messages to topic subscribers.
type Bus interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Subscribe(ctx context.Context, topic string) (Subscriber, error)
}

// Subscriber receives messages until Close.
type Subscriber interface {
	C() <-chan Message
	Close() error
}
