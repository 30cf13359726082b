// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package store persists aggregate snapshots behind an optimistic
// concurrency check. Every backend honours the same contract:
//
//   - FindByID returns a copy detached from the committed entry.
//   - Save on an unknown key accepts any incoming version.
//   - Save on a known key requires the incoming version to equal the
//     committed one, otherwise it fails with *ConflictError and changes nothing.
//   - The committed version is incoming+1 and is assigned by the store.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Entity is what a store can persist. Clone must return a value sharing no
// mutable state with the receiver.
type Entity[T any] interface {
	Key() string
	Version() uint64
	SetVersion(v uint64)
	Clone() T
}

// Store is the versioned persistence port used by strategies and use cases.
type Store[T Entity[T]] interface {
	// FindByID returns a detached copy of the committed entry, or found=false.
	FindByID(ctx context.Context, key string) (value T, found bool, err error)
	// Save commits value if its version matches the committed one.
	Save(ctx context.Context, value T) error
}

// ErrConflict is matched by every *ConflictError.
var ErrConflict = errors.New("version conflict")

// ConflictError reports a rejected stale write. Actual is the committed
// version observed at rejection time.
type ConflictError struct {
	Kind     string
	Key      string
	Expected uint64
	Actual   uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: version conflict: expected %d, actual %d", e.Kind, e.Key, e.Expected, e.Actual)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Backend names.
const (
	BackendMemory = "memory"
	BackendSqlite = "sqlite"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)
