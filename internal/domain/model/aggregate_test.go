// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEvent_Idempotent(t *testing.T) {
	p := NewPayment("p-1")
	id := uuid.New()

	require.True(t, p.ApplyEvent(id, PaymentAuthorized))
	require.False(t, p.ApplyEvent(id, PaymentAuthorized))
	assert.Equal(t, PaymentAuthorized, p.Status())
	assert.Equal(t, []uuid.UUID{id}, p.AppliedEventIDs())
}

func TestApplyEvent_DuplicatePrecedesTransition(t *testing.T) {
	p := NewPayment("p-1")
	id := uuid.New()
	require.True(t, p.ApplyEvent(id, PaymentAuthorized))

	// Legal next edge, but the id was already consumed.
	require.False(t, p.ApplyEvent(id, PaymentApproved))
	assert.Equal(t, PaymentAuthorized, p.Status())
}

func TestApplyEvent_InvalidTransitionKeepsIDUnconsumed(t *testing.T) {
	p := NewPayment("p-1")
	id := uuid.New()

	require.False(t, p.ApplyEvent(id, PaymentApproved))
	assert.Equal(t, PaymentCreated, p.Status())
	assert.False(t, p.HasApplied(id))

	require.True(t, p.ApplyEvent(id, PaymentAuthorized))
	assert.True(t, p.HasApplied(id))
}

func TestApplyEvent_SelfTransitionConsumesID(t *testing.T) {
	p := NewPayment("p-1")
	id := uuid.New()

	require.True(t, p.ApplyEvent(id, PaymentCreated))
	assert.Equal(t, PaymentCreated, p.Status())
	assert.True(t, p.HasApplied(id))
	require.False(t, p.ApplyEvent(id, PaymentCreated))
}

func TestApplyEvent_OutOfOrder(t *testing.T) {
	p := NewPayment("p-1")

	require.False(t, p.ApplyEvent(uuid.New(), PaymentApproved))
	require.True(t, p.ApplyEvent(uuid.New(), PaymentAuthorized))
	assert.Equal(t, PaymentAuthorized, p.Status())
}

func TestPaymentClone_Detached(t *testing.T) {
	p := NewPayment("p-1")
	require.True(t, p.ApplyEvent(uuid.New(), PaymentAuthorized))
	p.SetVersion(3)

	c := p.Clone()
	require.True(t, c.ApplyEvent(uuid.New(), PaymentApproved))
	c.SetVersion(4)

	assert.Equal(t, PaymentAuthorized, p.Status())
	assert.Len(t, p.AppliedEventIDs(), 1)
	assert.Equal(t, uint64(3), p.Version())
	assert.Len(t, c.AppliedEventIDs(), 2)
}

func TestPaymentJSON_RoundTrip(t *testing.T) {
	p := NewPayment("p-1")
	require.True(t, p.ApplyEvent(uuid.New(), PaymentAuthorized))
	require.True(t, p.ApplyEvent(uuid.New(), PaymentApproved))
	p.SetVersion(2)

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var got Payment
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "p-1", got.Key())
	assert.Equal(t, PaymentApproved, got.Status())
	assert.Equal(t, uint64(2), got.Version())
	if diff := cmp.Diff(p.AppliedEventIDs(), got.AppliedEventIDs()); diff != "" {
		t.Fatalf("applied ids mismatch (-want +got):\n%s", diff)
	}
}

func TestPaymentJSON_RejectsUnknownStatus(t *testing.T) {
	var p Payment
	err := json.Unmarshal([]byte(`{"key":"p-1","status":"SETTLED","version":1}`), &p)
	require.ErrorIs(t, err, ErrInvalidStatus)
}
