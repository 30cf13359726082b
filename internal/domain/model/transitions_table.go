// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import "slices"

// Every status of an enumeration must appear as a key, including terminal
// ones; Valid() relies on it.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentCreated:    {PaymentAuthorized, PaymentFailed},
	PaymentAuthorized: {PaymentApproved, PaymentFailed},
	PaymentApproved:   {PaymentRefunded},
	PaymentFailed:     {},
	PaymentRefunded:   {},
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderNew:       {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderShipped, OrderCancelled},
	OrderShipped:   {},
	OrderCancelled: {},
}

// CanTransitionTo reports whether target is reachable from s in one step.
// The identity transition is always legal for a valid status.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	return canTransition(paymentTransitions, s, target)
}

// CanTransitionTo reports whether target is reachable from s in one step.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	return canTransition(orderTransitions, s, target)
}

func canTransition[S comparable](table map[S][]S, from, to S) bool {
	next, ok := table[from]
	if !ok {
		return false
	}
	if from == to {
		return true
	}
	return slices.Contains(next, to)
}
