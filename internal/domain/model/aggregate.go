// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package model holds the aggregates whose state moves only through
// idempotent, table-validated event application. Nothing here performs I/O.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Status is the constraint satisfied by every aggregate status enum.
type Status[S any] interface {
	~string
	Valid() bool
	CanTransitionTo(target S) bool
}

// Aggregate is the versioned state machine shared by Payment and Order.
// It is not safe for concurrent mutation; callers work on detached copies
// obtained from a store.
type Aggregate[S Status[S]] struct {
	key     string
	status  S
	applied map[uuid.UUID]struct{}
	version uint64
}

func newAggregate[S Status[S]](key string, initial S) Aggregate[S] {
	return Aggregate[S]{key: key, status: initial, applied: make(map[uuid.UUID]struct{})}
}

func (a *Aggregate[S]) Key() string         { return a.key }
func (a *Aggregate[S]) Status() S           { return a.status }
func (a *Aggregate[S]) Version() uint64     { return a.version }
func (a *Aggregate[S]) SetVersion(v uint64) { a.version = v }

// HasApplied reports whether eventID was already consumed.
func (a *Aggregate[S]) HasApplied(id uuid.UUID) bool {
	_, ok := a.applied[id]
	return ok
}

// AppliedEventIDs returns the consumed event ids in a stable order.
func (a *Aggregate[S]) AppliedEventIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(a.applied))
	for id := range a.applied {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(x, y uuid.UUID) int { return bytes.Compare(x[:], y[:]) })
	return ids
}

// ApplyEvent moves the aggregate to target exactly once per eventID.
//
// The duplicate check runs before the transition check, so a replayed id is a
// no-op even when target would be legal. A rejected transition leaves the id
// unconsumed; a later legal delivery of the same id still applies.
func (a *Aggregate[S]) ApplyEvent(eventID uuid.UUID, target S) bool {
	if a.HasApplied(eventID) {
		return false
	}
	if !target.Valid() || !a.status.CanTransitionTo(target) {
		return false
	}
	a.status = target
	if a.applied == nil {
		a.applied = make(map[uuid.UUID]struct{})
	}
	a.applied[eventID] = struct{}{}
	return true
}

func (a *Aggregate[S]) clone() Aggregate[S] {
	c := *a
	c.applied = make(map[uuid.UUID]struct{}, len(a.applied))
	for id := range a.applied {
		c.applied[id] = struct{}{}
	}
	return c
}

// aggregateState is the serialized snapshot shared by all aggregate codecs.
type aggregateState[S Status[S]] struct {
	Key     string      `json:"key"`
	Status  S           `json:"status"`
	Version uint64      `json:"version"`
	Applied []uuid.UUID `json:"appliedEventIds"`
}

func (a *Aggregate[S]) state() aggregateState[S] {
	return aggregateState[S]{Key: a.key, Status: a.status, Version: a.version, Applied: a.AppliedEventIDs()}
}

func (a *Aggregate[S]) restore(st aggregateState[S]) error {
	if st.Key == "" {
		return fmt.Errorf("restore aggregate: empty key")
	}
	if !st.Status.Valid() {
		return fmt.Errorf("restore aggregate %s: %w", st.Key, &InvalidStatusError{Value: string(st.Status)})
	}
	a.key = st.Key
	a.status = st.Status
	a.version = st.Version
	a.applied = make(map[uuid.UUID]struct{}, len(st.Applied))
	for _, id := range st.Applied {
		a.applied[id] = struct{}{}
	}
	return nil
}

func (a *Aggregate[S]) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.state())
}

func (a *Aggregate[S]) UnmarshalJSON(data []byte) error {
	var st aggregateState[S]
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	return a.restore(st)
}
