// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Router results.
const (
	RouteRouted     = "routed"
	RouteNoStrategy = "no_strategy"
	RouteFailed     = "failed"
)

var (
	RouterEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idemflow_router_events_total",
		Help: "Events dispatched by the router by type and result",
	}, []string{"type", "result"}) // result=routed|no_strategy|failed

	EventOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idemflow_event_outcomes_total",
		Help: "Event application outcomes per aggregate kind",
	}, []string{"aggregate", "outcome"}) // outcome=applied|noop|conflict|error

	KafkaRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idemflow_kafka_records_total",
		Help: "Kafka records handled by topic and result",
	}, []string{"topic", "result"}) // result=ok|decode_error|rejected|failed|produced
)

// RecordRoute counts one routed event.
func RecordRoute(eventType, result string) {
	RouterEventsTotal.WithLabelValues(orUnknown(eventType), orUnknown(result)).Inc()
}

// RecordOutcome counts one event application outcome.
func RecordOutcome(aggregate, outcome string) {
	EventOutcomesTotal.WithLabelValues(orUnknown(aggregate), orUnknown(outcome)).Inc()
}

// RecordKafkaRecord counts one consumed or produced Kafka record.
func RecordKafkaRecord(topic, result string) {
	KafkaRecordsTotal.WithLabelValues(orUnknown(topic), orUnknown(result)).Inc()
}
