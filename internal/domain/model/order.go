// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"encoding/json"
	"maps"
)

// Order is an order aggregate. Items can only be composed while the order is NEW.
type Order struct {
	Aggregate[OrderStatus]
	items map[string]int
}

// NewOrder returns an empty order in NEW at version 0.
func NewOrder(id string) *Order {
	return &Order{Aggregate: newAggregate(id, OrderNew), items: make(map[string]int)}
}

// AddItem adds qty units of productID. Quantities for the same product are
// summed. It returns false if the order is no longer NEW or qty is not positive.
func (o *Order) AddItem(productID string, qty int) bool {
	if o.status != OrderNew || qty <= 0 || productID == "" {
		return false
	}
	if o.items == nil {
		o.items = make(map[string]int)
	}
	o.items[productID] += qty
	return true
}

// Items returns a copy of the productID -> quantity mapping.
func (o *Order) Items() map[string]int {
	out := make(map[string]int, len(o.items))
	maps.Copy(out, o.items)
	return out
}

func (o *Order) Clone() *Order {
	return &Order{Aggregate: o.Aggregate.clone(), items: o.Items()}
}

type orderState struct {
	aggregateState[OrderStatus]
	Items map[string]int `json:"items,omitempty"`
}

func (o *Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(orderState{aggregateState: o.state(), Items: o.items})
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var st orderState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	if err := o.restore(st.aggregateState); err != nil {
		return err
	}
	o.items = make(map[string]int, len(st.Items))
	maps.Copy(o.items, st.Items)
	return nil
}
