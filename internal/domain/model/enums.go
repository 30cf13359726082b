// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

// PaymentStatus is the lifecycle of a payment aggregate.
type PaymentStatus string

const (
	PaymentCreated    PaymentStatus = "CREATED"
	PaymentAuthorized PaymentStatus = "AUTHORIZED"
	PaymentApproved   PaymentStatus = "APPROVED"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

// PaymentStatuses lists every payment status in declaration order.
func PaymentStatuses() []PaymentStatus {
	return []PaymentStatus{PaymentCreated, PaymentAuthorized, PaymentApproved, PaymentFailed, PaymentRefunded}
}

// Valid reports whether s is a member of the payment status enumeration.
func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

// IsTerminal returns true if no other status is reachable from s.
func (s PaymentStatus) IsTerminal() bool {
	return s.Valid() && len(paymentTransitions[s]) == 0
}

func (s PaymentStatus) String() string { return string(s) }

// ParsePaymentStatus maps an enum name (as carried by transport DTOs) to a status.
func ParsePaymentStatus(name string) (PaymentStatus, error) {
	s := PaymentStatus(name)
	if !s.Valid() {
		return "", &InvalidStatusError{Kind: KindPayment, Value: name}
	}
	return s, nil
}

// OrderStatus is the lifecycle of an order aggregate.
type OrderStatus string

const (
	OrderNew       OrderStatus = "NEW"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// OrderStatuses lists every order status in declaration order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{OrderNew, OrderConfirmed, OrderShipped, OrderCancelled}
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s.Valid() && len(orderTransitions[s]) == 0
}

func (s OrderStatus) String() string { return string(s) }

// ParseOrderStatus maps an enum name to an order status.
func ParseOrderStatus(name string) (OrderStatus, error) {
	s := OrderStatus(name)
	if !s.Valid() {
		return "", &InvalidStatusError{Kind: KindOrder, Value: name}
	}
	return s, nil
}

// Aggregate kinds, used as storage namespaces and metric labels.
const (
	KindPayment = "payment"
	KindOrder   = "order"
	KindStock   = "stock"
)
