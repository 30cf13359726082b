// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package usecase orchestrates load, apply and save for each aggregate.
package usecase

import (
	"errors"

	"github.com/ManuGH/idemflow/internal/domain/store"
	"github.com/ManuGH/idemflow/internal/metrics"
)

// Outcome is the observable result of applying one event.
type Outcome string

const (
	// OutcomeApplied means the transition was committed.
	OutcomeApplied Outcome = "applied"
	// OutcomeNoOp means a duplicate or illegal transition; nothing was written.
	OutcomeNoOp Outcome = "noop"
	// OutcomeConflict means a concurrent writer won; the caller may reload and retry.
	OutcomeConflict Outcome = "conflict"
)

func (o Outcome) String() string { return string(o) }

var (
	// ErrInvalidCommand rejects malformed input before any aggregate is loaded.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrNotFound is returned when an event targets an aggregate that was never created.
	ErrNotFound = errors.New("aggregate not found")
)

// saveOutcome classifies a Save error.
func saveOutcome(err error) Outcome {
	if errors.Is(err, store.ErrConflict) {
		return OutcomeConflict
	}
	return ""
}

func recordOutcome(kind string, o Outcome, err error) {
	label := string(o)
	if label == "" && err != nil {
		label = "error"
	}
	metrics.RecordOutcome(kind, label)
}
