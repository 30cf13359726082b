// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package event

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_PayloadIsDetached(t *testing.T) {
	src := map[string]any{KeyPaymentID: "p-1"}
	ev := New(TypePaymentApproved, src)

	src[KeyPaymentID] = "mutated"
	got, err := ev.StringValue(KeyPaymentID)
	require.NoError(t, err)
	assert.Equal(t, "p-1", got)

	view := ev.Payload()
	view[KeyPaymentID] = "mutated-again"
	got, err = ev.StringValue(KeyPaymentID)
	require.NoError(t, err)
	assert.Equal(t, "p-1", got)
}

func TestEvent_NestedItemsAreDetached(t *testing.T) {
	items := map[string]any{"sku-1": 2}
	typed := map[string]int{"sku-2": 1}
	tags := []any{"gift", map[string]any{"note": "fragile"}}
	ev := New(TypeOrderCreated, map[string]any{KeyOrderID: "o-1", KeyItems: items, "typed": typed, "tags": tags})

	items["sku-1"] = 99
	items["sku-x"] = 1
	typed["sku-2"] = 50
	tags[1].(map[string]any)["note"] = "mutated"

	got, err := ev.Quantities(KeyItems)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"sku-1": 2}, got)

	v, ok := ev.Value("typed")
	require.True(t, ok)
	assert.Equal(t, map[string]int{"sku-2": 1}, v)
	v.(map[string]int)["sku-2"] = 7

	view := ev.Payload()
	view[KeyItems].(map[string]any)["sku-1"] = 42
	assert.Equal(t, "fragile", view["tags"].([]any)[1].(map[string]any)["note"])

	got, err = ev.Quantities(KeyItems)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"sku-1": 2}, got)
	v, _ = ev.Value("typed")
	assert.Equal(t, map[string]int{"sku-2": 1}, v)
}

func TestEvent_NewWithIDKeepsIdentity(t *testing.T) {
	id := uuid.New()
	a := NewWithID(id, TypePaymentApproved, map[string]any{KeyPaymentID: "a"})
	b := NewWithID(id, TypePaymentFailed, map[string]any{KeyPaymentID: "b"})
	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.Type(), b.Type())
}

func TestEvent_StringValue(t *testing.T) {
	ev := New(TypeOrderCreated, map[string]any{KeyOrderID: 42, "empty": ""})

	_, err := ev.StringValue(KeyOrderID)
	require.ErrorIs(t, err, ErrMissingPayload)
	_, err = ev.StringValue("empty")
	require.ErrorIs(t, err, ErrMissingPayload)
	_, err = ev.StringValue("absent")
	require.ErrorIs(t, err, ErrMissingPayload)

	assert.False(t, ev.HasString(KeyOrderID))
	assert.False(t, ev.HasString("absent"))
}

func TestEvent_Quantities(t *testing.T) {
	t.Run("json numbers", func(t *testing.T) {
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(`{"items":{"prod-1":2,"prod-2":1}}`), &payload))
		q, err := New(TypeOrderCreated, payload).Quantities(KeyItems)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"prod-1": 2, "prod-2": 1}, q)
	})

	t.Run("typed map", func(t *testing.T) {
		q, err := New(TypeOrderCreated, map[string]any{KeyItems: map[string]int{"p": 3}}).Quantities(KeyItems)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"p": 3}, q)
	})

	t.Run("absent", func(t *testing.T) {
		q, err := New(TypeOrderCreated, nil).Quantities(KeyItems)
		require.NoError(t, err)
		assert.Nil(t, q)
	})

	t.Run("fractional", func(t *testing.T) {
		_, err := New(TypeOrderCreated, map[string]any{KeyItems: map[string]any{"p": 1.5}}).Quantities(KeyItems)
		require.ErrorIs(t, err, ErrMissingPayload)
	})

	t.Run("wrong shape", func(t *testing.T) {
		_, err := New(TypeOrderCreated, map[string]any{KeyItems: []int{1}}).Quantities(KeyItems)
		require.ErrorIs(t, err, ErrMissingPayload)
	})
}

func TestEnvelope_RoundTrip(t *testing.T) {
	ev := New(TypePaymentAuthorized, map[string]any{KeyPaymentID: "p-9"})

	raw, err := json.Marshal(ev.Envelope())
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	back, err := FromEnvelope(env)
	require.NoError(t, err)

	assert.Equal(t, ev.ID(), back.ID())
	assert.Equal(t, ev.Type(), back.Type())
	assert.Equal(t, ev.Payload(), back.Payload())
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse("not-a-uuid", TypePaymentApproved, nil)
	require.Error(t, err)

	_, err = Parse(uuid.NewString(), "", nil)
	require.ErrorIs(t, err, ErrEmptyType)
}
