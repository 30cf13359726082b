// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldEventID       = "event_id"
	FieldEventType     = "event_type"
	FieldCorrelationID = "correlation_id"
	FieldRequestID     = "request_id"
	FieldAggregateKey  = "aggregate_key"
	FieldAggregateKind = "aggregate_kind"
	FieldTraceID       = "trace_id"
	FieldSpanID        = "span_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldStrategy  = "strategy"
	FieldOutcome   = "outcome"
	FieldBackend   = "backend"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldVersion  = "version"

	// Transport fields
	FieldTopic     = "topic"
	FieldPartition = "partition"
	FieldOffset    = "offset"
)
