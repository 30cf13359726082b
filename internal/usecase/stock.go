// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package usecase

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/ManuGH/idemflow/internal/domain/model"
	"github.com/ManuGH/idemflow/internal/domain/store"
	"github.com/ManuGH/idemflow/internal/log"
)

// StockService mutates stock counters through load, mutate, CAS save.
type StockService struct {
	stocks store.Store[*model.Stock]
}

func NewStockService(stocks store.Store[*model.Stock]) *StockService {
	return &StockService{stocks: stocks}
}

// Seed adds qty units to productID, creating the entry if needed.
func (s *StockService) Seed(ctx context.Context, productID string, qty int) error {
	if productID == "" || qty < 0 {
		return fmt.Errorf("%w: seed %q with %d", ErrInvalidCommand, productID, qty)
	}
	st, found, err := s.stocks.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("load stock %s: %w", productID, err)
	}
	if !found {
		st = model.NewStock(productID, qty)
	} else {
		st.Release(qty)
	}
	return s.save(ctx, st)
}

// Reserve takes qty units or fails with model.ErrInsufficientStock. A save
// that loses a concurrent race reloads and tries once more, so a competitor
// taking the last units shows up as insufficient stock. A second lost race is
// returned as the *store.ConflictError.
func (s *StockService) Reserve(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: reserve %d of %s", ErrInvalidCommand, qty, productID)
	}
	err := s.reserveOnce(ctx, productID, qty)
	if !errors.Is(err, store.ErrConflict) {
		return err
	}
	logger := log.WithComponentFromContext(ctx, "stock")
	logger.Debug().
		Str(log.FieldEvent, "stock.reserve_retry").
		Str(log.FieldAggregateKey, productID).
		Int("qty", qty).
		Msg("reserve lost a concurrent update, reloading")
	return s.reserveOnce(ctx, productID, qty)
}

func (s *StockService) reserveOnce(ctx context.Context, productID string, qty int) error {
	st, found, err := s.stocks.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("load stock %s: %w", productID, err)
	}
	if !found || !st.Reserve(qty) {
		return fmt.Errorf("reserve %d of %s: %w", qty, productID, model.ErrInsufficientStock)
	}
	return s.save(ctx, st)
}

// Release returns qty units to productID.
func (s *StockService) Release(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: release %d of %s", ErrInvalidCommand, qty, productID)
	}
	st, found, err := s.stocks.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("load stock %s: %w", productID, err)
	}
	if !found {
		return fmt.Errorf("stock %s: %w", productID, ErrNotFound)
	}
	st.Release(qty)
	return s.save(ctx, st)
}

// ReserveAll reserves every item or none. Items already reserved are released
// again when a later one fails.
func (s *StockService) ReserveAll(ctx context.Context, items map[string]int) error {
	var done []string
	for _, productID := range slices.Sorted(maps.Keys(items)) {
		if err := s.Reserve(ctx, productID, items[productID]); err != nil {
			if rerr := s.releaseEach(ctx, items, done); rerr != nil {
				err = errors.Join(err, rerr)
			}
			return err
		}
		done = append(done, productID)
	}
	return nil
}

// ReleaseAll returns every item's quantity.
func (s *StockService) ReleaseAll(ctx context.Context, items map[string]int) error {
	return s.releaseEach(ctx, items, slices.Sorted(maps.Keys(items)))
}

func (s *StockService) releaseEach(ctx context.Context, items map[string]int, productIDs []string) error {
	var errs []error
	for _, productID := range productIDs {
		if err := s.Release(ctx, productID, items[productID]); err != nil {
			logger := log.WithComponentFromContext(ctx, "stock")
			logger.Error().
				Err(err).
				Str(log.FieldEvent, "stock.release_failed").
				Str(log.FieldAggregateKey, productID).
				Int("qty", items[productID]).
				Msg("compensating release failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Get returns the committed stock entry.
func (s *StockService) Get(ctx context.Context, productID string) (*model.Stock, error) {
	st, found, err := s.stocks.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("stock %s: %w", productID, ErrNotFound)
	}
	return st, nil
}

func (s *StockService) save(ctx context.Context, st *model.Stock) error {
	err := s.stocks.Save(ctx, st)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrConflict):
		return err
	default:
		return fmt.Errorf("save stock %s: %w", st.Key(), err)
	}
}
