// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrInsufficientStock is returned by callers that could not reserve the
// requested quantity.
var ErrInsufficientStock = errors.New("insufficient stock")

// Stock is the available quantity of one product. Counter updates are
// serialized by an internal mutex, so one instance may be shared.
type Stock struct {
	mu        sync.Mutex
	productID string
	available int
	version   uint64
}

// NewStock returns a stock entry holding qty units.
func NewStock(productID string, qty int) *Stock {
	return &Stock{productID: productID, available: max(qty, 0)}
}

// Reserve takes qty units if at least that many are available.
func (s *Stock) Reserve(qty int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if qty <= 0 || s.available < qty {
		return false
	}
	s.available -= qty
	return true
}

// Release returns qty units. Non-positive quantities are ignored.
func (s *Stock) Release(qty int) bool {
	if qty <= 0 {
		return false
	}
	s.mu.Lock()
	s.available += qty
	s.mu.Unlock()
	return true
}

func (s *Stock) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

func (s *Stock) Key() string { return s.productID }

func (s *Stock) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Stock) SetVersion(v uint64) {
	s.mu.Lock()
	s.version = v
	s.mu.Unlock()
}

func (s *Stock) Clone() *Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Stock{productID: s.productID, available: s.available, version: s.version}
}

type stockState struct {
	ProductID string `json:"productId"`
	Available int    `json:"available"`
	Version   uint64 `json:"version"`
}

func (s *Stock) MarshalJSON() ([]byte, error) {
	s.mu.Lock()
	st := stockState{ProductID: s.productID, Available: s.available, Version: s.version}
	s.mu.Unlock()
	return json.Marshal(st)
}

func (s *Stock) UnmarshalJSON(data []byte) error {
	var st stockState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	if st.ProductID == "" {
		return fmt.Errorf("restore stock: empty product id")
	}
	if st.Available < 0 {
		return fmt.Errorf("restore stock %s: negative quantity %d", st.ProductID, st.Available)
	}
	s.mu.Lock()
	s.productID, s.available, s.version = st.ProductID, st.Available, st.Version
	s.mu.Unlock()
	return nil
}
