// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/ManuGH/idemflow/internal/log"
	"github.com/ManuGH/idemflow/internal/metrics"
)

// instrumentedStore wraps any Store to capture metrics and log conflicts.
type instrumentedStore[T Entity[T]] struct {
	inner   Store[T]
	backend string
	kind    string
}

// NewInstrumentedStore decorates inner. Errors are passed through unchanged.
func NewInstrumentedStore[T Entity[T]](inner Store[T], backend, kind string) Store[T] {
	return &instrumentedStore[T]{inner: inner, backend: backend, kind: kind}
}

func (i *instrumentedStore[T]) observe(op string, start time.Time, result string) {
	metrics.ObserveStoreOp(i.backend, i.kind, op, result, time.Since(start))
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

func (i *instrumentedStore[T]) FindByID(ctx context.Context, key string) (v T, found bool, err error) {
	start := time.Now()
	defer func() {
		res := resultOf(err)
		if err == nil && !found {
			res = "miss"
		}
		i.observe("find", start, res)
	}()
	return i.inner.FindByID(ctx, key)
}

func (i *instrumentedStore[T]) Save(ctx context.Context, value T) (err error) {
	start := time.Now()
	defer func() {
		i.observe("save", start, resultOf(err))
		var ce *ConflictError
		if errors.As(err, &ce) {
			logger := log.WithComponentFromContext(ctx, "store")
			logger.Debug().
				Str(log.FieldEvent, "store.conflict").
				Str(log.FieldBackend, i.backend).
				Str(log.FieldAggregateKind, i.kind).
				Str(log.FieldAggregateKey, ce.Key).
				Uint64("expected", ce.Expected).
				Uint64("actual", ce.Actual).
				Msg("stale write rejected")
		}
	}()
	return i.inner.Save(ctx, value)
}
