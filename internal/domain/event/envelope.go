// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package event

// Envelope is the wire shape of an event for transports (Kafka domain-events
// topic, HTTP ingress).
type Envelope struct {
	EventID string         `json:"eventId"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Envelope converts the event to its wire shape.
func (e Event) Envelope() Envelope {
	return Envelope{EventID: e.id.String(), Type: e.typ, Payload: e.Payload()}
}

// FromEnvelope validates a wire envelope and returns the event it carries.
func FromEnvelope(env Envelope) (Event, error) {
	return Parse(env.EventID, env.Type, env.Payload)
}
