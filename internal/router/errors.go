// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package router

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNoStrategy is matched by every *NoStrategyError.
var ErrNoStrategy = errors.New("no strategy for event")

// NoStrategyError signals a wiring gap: an event nobody handles.
type NoStrategyError struct {
	EventID   uuid.UUID
	EventType string
}

func (e *NoStrategyError) Error() string {
	return fmt.Sprintf("no strategy for event %s of type %q", e.EventID, e.EventType)
}

func (e *NoStrategyError) Is(target error) bool {
	return target == ErrNoStrategy
}
