// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ports

import "context"

// TopicPaymentStatus carries StatusChanged notifications.
const TopicPaymentStatus = "payment-status"

// StatusChanged is emitted after a payment transition has been committed.
type StatusChanged struct {
	EventID   string `json:"eventId"`
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
	Version   uint64 `json:"version"`
}

// Publisher receives committed status changes. Implementations must not
// assume delivery happens inside the write path; a failed publish never
// undoes a commit.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, ev StatusChanged) error
}
