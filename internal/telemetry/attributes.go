// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by router, use case and transport spans.
const (
	// Event attributes
	EventIDKey   = "event.id"
	EventTypeKey = "event.type"

	// Routing attributes
	RouteMatchesKey  = "route.matches"
	RouteStrategyKey = "route.strategy"

	// Aggregate attributes
	AggregateKindKey    = "aggregate.kind"
	AggregateKeyKey     = "aggregate.key"
	AggregateOutcomeKey = "aggregate.outcome"

	// Messaging attributes
	MessagingTopicKey     = "messaging.destination"
	MessagingPartitionKey = "messaging.kafka.partition"
	MessagingOffsetKey    = "messaging.kafka.offset"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// EventAttributes describes the event being routed.
func EventAttributes(id, eventType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(EventIDKey, id),
		attribute.String(EventTypeKey, eventType),
	}
}

// AggregateAttributes describes the aggregate touched by a span. Empty
// values are omitted.
func AggregateAttributes(kind, key, outcome string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if kind != "" {
		attrs = append(attrs, attribute.String(AggregateKindKey, kind))
	}
	if key != "" {
		attrs = append(attrs, attribute.String(AggregateKeyKey, key))
	}
	if outcome != "" {
		attrs = append(attrs, attribute.String(AggregateOutcomeKey, outcome))
	}
	return attrs
}

// RecordAttributes describes a consumed Kafka record.
func RecordAttributes(topic string, partition int32, offset int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(MessagingTopicKey, topic),
		attribute.Int(MessagingPartitionKey, int(partition)),
		attribute.Int64(MessagingOffsetKey, offset),
	}
}

// ErrorAttributes marks a span as failed with a coarse error class.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
