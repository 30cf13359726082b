// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/idemflow/internal/domain/model"
	"github.com/ManuGH/idemflow/internal/domain/store"
)

func TestStock_SeedReserveRelease(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	require.NoError(t, f.stock.Seed(ctx, "sku-1", 3))
	require.NoError(t, f.stock.Seed(ctx, "sku-1", 2))
	assert.Equal(t, 5, available(t, f, "sku-1"))

	require.NoError(t, f.stock.Reserve(ctx, "sku-1", 5))
	require.ErrorIs(t, f.stock.Reserve(ctx, "sku-1", 1), model.ErrInsufficientStock)

	require.NoError(t, f.stock.Release(ctx, "sku-1", 2))
	assert.Equal(t, 2, available(t, f, "sku-1"))

	st, err := f.stock.Get(ctx, "sku-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), st.Version(), "failed reserve does not commit")
}

func TestStock_RejectsInvalidQuantities(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.stock.Seed(ctx, "sku-1", 1))

	require.ErrorIs(t, f.stock.Reserve(ctx, "sku-1", 0), ErrInvalidCommand)
	require.ErrorIs(t, f.stock.Release(ctx, "sku-1", -1), ErrInvalidCommand)
	require.ErrorIs(t, f.stock.Seed(ctx, "", 1), ErrInvalidCommand)
	require.ErrorIs(t, f.stock.Reserve(ctx, "unknown", 1), model.ErrInsufficientStock)
	require.ErrorIs(t, f.stock.Release(ctx, "unknown", 1), ErrNotFound)
}

func TestStock_ReserveAllRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.stock.Seed(ctx, "a", 2))
	require.NoError(t, f.stock.Seed(ctx, "b", 2))
	require.NoError(t, f.stock.Seed(ctx, "c", 0))

	err := f.stock.ReserveAll(ctx, map[string]int{"a": 1, "b": 2, "c": 1})
	require.ErrorIs(t, err, model.ErrInsufficientStock)
	assert.Equal(t, 2, available(t, f, "a"))
	assert.Equal(t, 2, available(t, f, "b"))
}

func reserveConcurrently(t *testing.T, seed int) []error {
	t.Helper()
	ctx := context.Background()
	stocks := store.NewMemoryStore[*model.Stock](model.KindStock)
	require.NoError(t, stocks.Save(ctx, model.NewStock("sku-1", seed)))
	svc := NewStockService(newBarrierStore[*model.Stock](stocks, 2))

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = svc.Reserve(ctx, "sku-1", 1)
		}()
	}
	wg.Wait()
	return errs
}

func TestStock_ReserveLastUnitRaceReportsInsufficient(t *testing.T) {
	errs := reserveConcurrently(t, 1)

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, model.ErrInsufficientStock):
			insufficient++
		default:
			t.Errorf("unexpected error: %v", err)
		}
		assert.NotErrorIs(t, err, store.ErrConflict)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
}

func TestStock_ReserveRetriesAfterLostRace(t *testing.T) {
	for _, err := range reserveConcurrently(t, 2) {
		require.NoError(t, err)
	}
}
