// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package event defines the immutable event value carried between the router
// and its strategies. An event knows nothing about the aggregates it affects.
package event

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
)

// Well-known event types understood by the bundled strategies.
const (
	TypePaymentAuthorized = "PAYMENT_AUTHORIZED"
	TypePaymentApproved   = "PAYMENT_APPROVED"
	TypePaymentFailed     = "PAYMENT_FAILED"
	TypePaymentRefunded   = "PAYMENT_REFUNDED"

	TypeOrderCreated   = "ORDER_CREATED"
	TypeOrderConfirmed = "ORDER_CONFIRMED"
	TypeOrderShipped   = "ORDER_SHIPPED"
	TypeOrderCancelled = "ORDER_CANCELLED"
)

// Payload keys.
const (
	KeyPaymentID = "paymentId"
	KeyOrderID   = "orderId"
	KeyItems     = "items"
)

var (
	// ErrMissingPayload is returned when a required payload key is absent or has the wrong type.
	ErrMissingPayload = errors.New("missing payload field")
	// ErrEmptyType is returned when an event is built without a type tag.
	ErrEmptyType = errors.New("event type is empty")
)

// Event is an immutable occurrence. Two events with the same ID are the same
// occurrence regardless of payload.
type Event struct {
	id      uuid.UUID
	typ     string
	payload map[string]any
}

// New creates an event with a freshly generated identity.
func New(typ string, payload map[string]any) Event {
	return NewWithID(uuid.New(), typ, payload)
}

// NewWithID creates an event with a caller supplied identity (replays, tests,
// transport adapters).
func NewWithID(id uuid.UUID, typ string, payload map[string]any) Event {
	return Event{id: id, typ: typ, payload: clonePayload(payload)}
}

// clonePayload copies the container shapes JSON decoding and in-process
// callers produce. Other values are kept as-is and must not be mutated.
func clonePayload(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return clonePayload(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]int:
		return maps.Clone(x)
	case map[string]string:
		return maps.Clone(x)
	case []string:
		return slices.Clone(x)
	case []int:
		return slices.Clone(x)
	default:
		return v
	}
}

// Parse builds an event from transport primitives and validates them.
func Parse(rawID, typ string, payload map[string]any) (Event, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return Event{}, fmt.Errorf("parse event id %q: %w", rawID, err)
	}
	if typ == "" {
		return Event{}, ErrEmptyType
	}
	return NewWithID(id, typ, payload), nil
}

func (e Event) ID() uuid.UUID { return e.id }
func (e Event) Type() string  { return e.typ }

// Payload returns a deep copy of the payload mapping.
func (e Event) Payload() map[string]any { return clonePayload(e.payload) }

// Value returns a copy of a single payload value.
func (e Event) Value(key string) (any, bool) {
	v, ok := e.payload[key]
	return cloneValue(v), ok
}

// StringValue returns the payload value for key if it is a non-empty string.
func (e Event) StringValue(key string) (string, error) {
	v, ok := e.payload[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingPayload, key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s is not a non-empty string", ErrMissingPayload, key)
	}
	return s, nil
}

// HasString reports whether key holds a non-empty string. It is cheap enough
// for Supports predicates.
func (e Event) HasString(key string) bool {
	s, ok := e.payload[key].(string)
	return ok && s != ""
}

// Quantities decodes a productId -> quantity mapping. JSON numbers arrive as
// float64, in-process callers usually pass int.
func (e Event) Quantities(key string) (map[string]int, error) {
	v, ok := e.payload[key]
	if !ok {
		return nil, nil
	}
	out := make(map[string]int)
	switch m := v.(type) {
	case map[string]int:
		maps.Copy(out, m)
	case map[string]any:
		for k, raw := range m {
			switch n := raw.(type) {
			case int:
				out[k] = n
			case int64:
				out[k] = int(n)
			case float64:
				if n != float64(int(n)) {
					return nil, fmt.Errorf("%w: %s.%s is not an integer", ErrMissingPayload, key, k)
				}
				out[k] = int(n)
			default:
				return nil, fmt.Errorf("%w: %s.%s has type %T", ErrMissingPayload, key, k, raw)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s has type %T", ErrMissingPayload, key, v)
	}
	return out, nil
}
