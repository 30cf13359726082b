// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ManuGH/idemflow/internal/domain/model"
)

// PaymentEventDTO is the JSON body of a payment-events record.
type PaymentEventDTO struct {
	EventID   string `json:"eventId"`
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}

// PaymentCommand is a validated PaymentEventDTO.
type PaymentCommand struct {
	EventID   uuid.UUID
	PaymentID string
	Status    model.PaymentStatus
}

// DecodePaymentEvent parses and validates a payment record value. Every
// failure wraps ErrInvalidRecord.
func DecodePaymentEvent(value []byte) (PaymentCommand, error) {
	var dto PaymentEventDTO
	if err := json.Unmarshal(value, &dto); err != nil {
		return PaymentCommand{}, fmt.Errorf("%w: decode payment event: %v", ErrInvalidRecord, err)
	}
	id, err := uuid.Parse(dto.EventID)
	if err != nil {
		return PaymentCommand{}, fmt.Errorf("%w: event id %q: %v", ErrInvalidRecord, dto.EventID, err)
	}
	if dto.PaymentID == "" {
		return PaymentCommand{}, fmt.Errorf("%w: empty payment id", ErrInvalidRecord)
	}
	status, err := model.ParsePaymentStatus(dto.Status)
	if err != nil {
		return PaymentCommand{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return PaymentCommand{EventID: id, PaymentID: dto.PaymentID, Status: status}, nil
}

// EncodePaymentEvent is the inverse of DecodePaymentEvent.
func EncodePaymentEvent(eventID uuid.UUID, paymentID string, status model.PaymentStatus) ([]byte, error) {
	return json.Marshal(PaymentEventDTO{EventID: eventID.String(), PaymentID: paymentID, Status: string(status)})
}
