// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/idemflow/internal/domain/model"
	"github.com/ManuGH/idemflow/internal/domain/ports"
	"github.com/ManuGH/idemflow/internal/domain/store"
)

// barrierStore holds the first n FindByID calls until all n have loaded, so
// they act on the same snapshot. Later loads pass straight through.
type barrierStore[T store.Entity[T]] struct {
	store.Store[T]
	n      int64
	calls  atomic.Int64
	loaded sync.WaitGroup
}

func newBarrierStore[T store.Entity[T]](inner store.Store[T], n int) *barrierStore[T] {
	b := &barrierStore[T]{Store: inner, n: int64(n)}
	b.loaded.Add(n)
	return b
}

func (b *barrierStore[T]) FindByID(ctx context.Context, key string) (T, bool, error) {
	v, found, err := b.Store.FindByID(ctx, key)
	if b.calls.Add(1) <= b.n {
		b.loaded.Done()
		b.loaded.Wait()
	}
	return v, found, err
}

type capturePublisher struct {
	mu   sync.Mutex
	got  []ports.StatusChanged
	fail bool
}

func (p *capturePublisher) PublishStatusChanged(_ context.Context, ev ports.StatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, ev)
	if p.fail {
		return errors.New("sink unavailable")
	}
	return nil
}

func (p *capturePublisher) events() []ports.StatusChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.StatusChanged(nil), p.got...)
}

func newPayments() *store.MemoryStore[*model.Payment] {
	return store.NewMemoryStore[*model.Payment](model.KindPayment)
}

type fixture struct {
	orders *OrderService
	stock  *StockService
	stocks *store.MemoryStore[*model.Stock]
	ords   *store.MemoryStore[*model.Order]
}

func newFixture() fixture {
	stocks := store.NewMemoryStore[*model.Stock](model.KindStock)
	ords := store.NewMemoryStore[*model.Order](model.KindOrder)
	stock := NewStockService(stocks)
	return fixture{orders: NewOrderService(ords, stock), stock: stock, stocks: stocks, ords: ords}
}
