// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

// Payment is a payment aggregate keyed by payment id.
type Payment struct {
	Aggregate[PaymentStatus]
}

// NewPayment returns a fresh payment in CREATED at version 0.
func NewPayment(id string) *Payment {
	return &Payment{Aggregate: newAggregate(id, PaymentCreated)}
}

// Clone returns a copy sharing no mutable state with p.
func (p *Payment) Clone() *Payment {
	return &Payment{Aggregate: p.Aggregate.clone()}
}
