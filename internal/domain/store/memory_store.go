// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryStore is the in-process reference store. Each key owns a slot whose
// committed entry is swapped with a single CompareAndSwap, so writers to
// different keys never contend.
type MemoryStore[T Entity[T]] struct {
	kind  string
	slots sync.Map // key -> *slot[T]
}

type slot[T Entity[T]] struct {
	cur atomic.Pointer[entry[T]]
}

// entry is immutable once published.
type entry[T Entity[T]] struct {
	value   T
	version uint64
}

func NewMemoryStore[T Entity[T]](kind string) *MemoryStore[T] {
	return &MemoryStore[T]{kind: kind}
}

func (s *MemoryStore[T]) FindByID(ctx context.Context, key string) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	v, ok := s.slots.Load(key)
	if !ok {
		return zero, false, nil
	}
	e := v.(*slot[T]).cur.Load()
	if e == nil {
		return zero, false, nil
	}
	return e.value.Clone(), true, nil
}

func (s *MemoryStore[T]) Save(ctx context.Context, value T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := value.Key()
	incoming := value.Version()

	v, _ := s.slots.LoadOrStore(key, &slot[T]{})
	sl := v.(*slot[T])

	cur := sl.cur.Load()
	if cur != nil && cur.version != incoming {
		return &ConflictError{Kind: s.kind, Key: key, Expected: incoming, Actual: cur.version}
	}

	next := value.Clone()
	next.SetVersion(incoming + 1)
	if !sl.cur.CompareAndSwap(cur, &entry[T]{value: next, version: incoming + 1}) {
		var actual uint64
		if latest := sl.cur.Load(); latest != nil {
			actual = latest.version
		}
		return &ConflictError{Kind: s.kind, Key: key, Expected: incoming, Actual: actual}
	}
	return nil
}

// Len returns the number of committed keys.
func (s *MemoryStore[T]) Len() int {
	n := 0
	s.slots.Range(func(_, v any) bool {
		if v.(*slot[T]).cur.Load() != nil {
			n++
		}
		return true
	})
	return n
}
