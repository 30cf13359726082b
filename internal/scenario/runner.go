// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package scenario replays the demo flows against live services and reports
// the resulting aggregate states.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/idemflow/internal/domain/model"
	"github.com/ManuGH/idemflow/internal/domain/store"
	"github.com/ManuGH/idemflow/internal/log"
	"github.com/ManuGH/idemflow/internal/metrics"
	"github.com/ManuGH/idemflow/internal/usecase"
)

type PaymentService interface {
	Execute(ctx context.Context, eventID uuid.UUID, paymentID string, target model.PaymentStatus) (usecase.Outcome, error)
	Get(ctx context.Context, paymentID string) (*model.Payment, error)
}

type OrderService interface {
	Create(ctx context.Context, eventID uuid.UUID, orderID string, items map[string]int) (usecase.Outcome, error)
	Confirm(ctx context.Context, eventID uuid.UUID, orderID string) (usecase.Outcome, error)
	Cancel(ctx context.Context, eventID uuid.UUID, orderID string) (usecase.Outcome, error)
	Ship(ctx context.Context, eventID uuid.UUID, orderID string) (usecase.Outcome, error)
	Get(ctx context.Context, orderID string) (*model.Order, error)
}

type StockService interface {
	Seed(ctx context.Context, productID string, qty int) error
	Get(ctx context.Context, productID string) (*model.Stock, error)
}

// Step is one call made by a scenario.
type Step struct {
	Action  string `json:"action"`
	Outcome string `json:"outcome,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PaymentState is the committed payment after a scenario.
type PaymentState struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Version uint64 `json:"version"`
}

type OrderState struct {
	ID      string         `json:"id"`
	Status  string         `json:"status"`
	Version uint64         `json:"version"`
	Items   map[string]int `json:"items,omitempty"`
}

type StockState struct {
	ProductID string `json:"productId"`
	Available int    `json:"available"`
	Version   uint64 `json:"version"`
}

// Result collects the steps and final states of one scenario.
type Result struct {
	Name    string        `json:"name"`
	Steps   []Step        `json:"steps"`
	Payment *PaymentState `json:"payment,omitempty"`
	Order   *OrderState   `json:"order,omitempty"`
	Stock   *StockState   `json:"stock,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Report is the output of a full run.
type Report struct {
	StartedAt time.Time                     `json:"startedAt"`
	Duration  string                        `json:"duration"`
	Scenarios []Result                      `json:"scenarios"`
	Outcomes  map[string]map[string]float64 `json:"outcomes"`
}

// Failed reports whether any scenario stopped on an unexpected error.
func (r Report) Failed() bool {
	for _, res := range r.Scenarios {
		if res.Error != "" {
			return true
		}
	}
	return false
}

type Runner struct {
	mu       sync.Mutex // guards Result.Steps during concurrent scenarios
	payments PaymentService
	orders   OrderService
	stock    StockService
}

func NewRunner(payments PaymentService, orders OrderService, stock StockService) *Runner {
	return &Runner{payments: payments, orders: orders, stock: stock}
}

type scenarioFunc func(ctx context.Context, res *Result) error

// Run executes all scenarios in order. A failing scenario is recorded and the
// run continues; only context cancellation stops it early.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	logger := log.WithComponentFromContext(ctx, "scenario")
	report := Report{StartedAt: time.Now().UTC()}

	all := []struct {
		name string
		run  scenarioFunc
	}{
		{"concurrent-same-event", r.concurrentSameEvent},
		{"idempotent-replay", r.idempotentReplay},
		{"out-of-order-event", r.outOfOrderEvent},
		{"concurrent-different-events", r.concurrentDifferentEvents},
		{"payment-order-stock", r.paymentOrderStock},
		{"reserve-then-cancel", r.reserveThenCancel},
		{"order-lifecycle", r.orderLifecycle},
	}

	for i, sc := range all {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := Result{Name: sc.name}
		if err := sc.run(ctx, &res); err != nil {
			res.Error = err.Error()
			logger.Error().Err(err).
				Str(log.FieldEvent, "scenario.failed").
				Str("scenario", sc.name).
				Msg("scenario failed")
		}
		logResult(logger, i+1, res)
		report.Scenarios = append(report.Scenarios, res)
	}

	report.Duration = time.Since(report.StartedAt).String()
	report.Outcomes = map[string]map[string]float64{
		model.KindPayment: metrics.OutcomeCounts(model.KindPayment),
		model.KindOrder:   metrics.OutcomeCounts(model.KindOrder),
	}
	return report, nil
}

func (r *Runner) concurrentSameEvent(ctx context.Context, res *Result) error {
	const paymentID = "payment-1"
	eventID := uuid.New()
	err := together(ctx,
		func(ctx context.Context) error {
			return r.pay(ctx, res, "worker-1 AUTHORIZED", eventID, paymentID, model.PaymentAuthorized)
		},
		func(ctx context.Context) error {
			return r.pay(ctx, res, "worker-2 AUTHORIZED", eventID, paymentID, model.PaymentAuthorized)
		},
	)
	if err != nil {
		return err
	}
	return r.capturePayment(ctx, res, paymentID)
}

func (r *Runner) idempotentReplay(ctx context.Context, res *Result) error {
	const paymentID = "payment-2"
	eventID := uuid.New()
	for _, action := range []string{"AUTHORIZED", "AUTHORIZED replay"} {
		if err := r.pay(ctx, res, action, eventID, paymentID, model.PaymentAuthorized); err != nil {
			return err
		}
	}
	return r.capturePayment(ctx, res, paymentID)
}

func (r *Runner) outOfOrderEvent(ctx context.Context, res *Result) error {
	const paymentID = "payment-3"
	if err := r.pay(ctx, res, "APPROVED", uuid.New(), paymentID, model.PaymentApproved); err != nil {
		return err
	}
	if err := r.pay(ctx, res, "AUTHORIZED", uuid.New(), paymentID, model.PaymentAuthorized); err != nil {
		return err
	}
	return r.capturePayment(ctx, res, paymentID)
}

func (r *Runner) concurrentDifferentEvents(ctx context.Context, res *Result) error {
	const paymentID = "payment-4"
	err := together(ctx,
		func(ctx context.Context) error {
			return r.pay(ctx, res, "AUTHORIZED", uuid.New(), paymentID, model.PaymentAuthorized)
		},
		func(ctx context.Context) error {
			return r.pay(ctx, res, "FAILED", uuid.New(), paymentID, model.PaymentFailed)
		},
	)
	if err != nil {
		return err
	}
	return r.capturePayment(ctx, res, paymentID)
}

func (r *Runner) paymentOrderStock(ctx context.Context, res *Result) error {
	const (
		paymentID = "payment-5"
		orderID   = "order-5"
		productID = "prod-5"
	)
	if err := r.seed(ctx, res, productID, 10); err != nil {
		return err
	}
	if err := r.pay(ctx, res, "AUTHORIZED", uuid.New(), paymentID, model.PaymentAuthorized); err != nil {
		return err
	}
	if err := r.order(res, "create", func(id uuid.UUID) (usecase.Outcome, error) {
		return r.orders.Create(ctx, id, orderID, map[string]int{productID: 2})
	}); err != nil {
		return err
	}
	if err := r.order(res, "confirm", func(id uuid.UUID) (usecase.Outcome, error) {
		return r.orders.Confirm(ctx, id, orderID)
	}); err != nil {
		return err
	}
	if err := r.capturePayment(ctx, res, paymentID); err != nil {
		return err
	}
	if err := r.captureOrder(ctx, res, orderID); err != nil {
		return err
	}
	return r.captureStock(ctx, res, productID)
}

func (r *Runner) reserveThenCancel(ctx context.Context, res *Result) error {
	const (
		orderID   = "order-6"
		productID = "prod-6"
	)
	if err := r.seed(ctx, res, productID, 1); err != nil {
		return err
	}
	steps := []struct {
		action string
		call   func(uuid.UUID) (usecase.Outcome, error)
	}{
		{"create", func(id uuid.UUID) (usecase.Outcome, error) {
			return r.orders.Create(ctx, id, orderID, map[string]int{productID: 1})
		}},
		{"confirm", func(id uuid.UUID) (usecase.Outcome, error) { return r.orders.Confirm(ctx, id, orderID) }},
		{"cancel", func(id uuid.UUID) (usecase.Outcome, error) { return r.orders.Cancel(ctx, id, orderID) }},
	}
	for _, s := range steps {
		if err := r.order(res, s.action, s.call); err != nil {
			return err
		}
	}
	if err := r.captureOrder(ctx, res, orderID); err != nil {
		return err
	}
	return r.captureStock(ctx, res, productID)
}

func (r *Runner) orderLifecycle(ctx context.Context, res *Result) error {
	const (
		orderID   = "order-7"
		productID = "prod-x"
	)
	if err := r.seed(ctx, res, productID, 1); err != nil {
		return err
	}
	steps := []struct {
		action string
		call   func(uuid.UUID) (usecase.Outcome, error)
	}{
		{"create", func(id uuid.UUID) (usecase.Outcome, error) {
			return r.orders.Create(ctx, id, orderID, map[string]int{productID: 1})
		}},
		{"confirm", func(id uuid.UUID) (usecase.Outcome, error) { return r.orders.Confirm(ctx, id, orderID) }},
		{"ship", func(id uuid.UUID) (usecase.Outcome, error) { return r.orders.Ship(ctx, id, orderID) }},
		// Shipped orders reject new items.
		{"add item after ship", func(id uuid.UUID) (usecase.Outcome, error) {
			return r.orders.Create(ctx, id, orderID, map[string]int{productID: 1})
		}},
	}
	for _, s := range steps {
		if err := r.order(res, s.action, s.call); err != nil {
			return err
		}
	}
	return r.captureOrder(ctx, res, orderID)
}

// pay records one payment call. Conflicts are an expected result of the
// concurrent scenarios and are not returned.
func (r *Runner) pay(ctx context.Context, res *Result, action string, eventID uuid.UUID, paymentID string, target model.PaymentStatus) error {
	out, err := r.payments.Execute(ctx, eventID, paymentID, target)
	r.mu.Lock()
	defer r.mu.Unlock()
	return res.record(action, out, err)
}

func (r *Runner) order(res *Result, action string, call func(uuid.UUID) (usecase.Outcome, error)) error {
	out, err := call(uuid.New())
	return res.record("order "+action, out, err)
}

func (r *Runner) seed(ctx context.Context, res *Result, productID string, qty int) error {
	err := r.stock.Seed(ctx, productID, qty)
	return res.record(fmt.Sprintf("seed %s=%d", productID, qty), "", err)
}

func (r *Runner) capturePayment(ctx context.Context, res *Result, paymentID string) error {
	p, err := r.payments.Get(ctx, paymentID)
	if err != nil {
		return err
	}
	res.Payment = &PaymentState{ID: paymentID, Status: p.Status().String(), Version: p.Version()}
	return nil
}

func (r *Runner) captureOrder(ctx context.Context, res *Result, orderID string) error {
	o, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	res.Order = &OrderState{ID: orderID, Status: o.Status().String(), Version: o.Version(), Items: o.Items()}
	return nil
}

func (r *Runner) captureStock(ctx context.Context, res *Result, productID string) error {
	st, err := r.stock.Get(ctx, productID)
	if err != nil {
		return err
	}
	res.Stock = &StockState{ProductID: productID, Available: st.Available(), Version: st.Version()}
	return nil
}

func (res *Result) record(action string, out usecase.Outcome, err error) error {
	step := Step{Action: action, Outcome: out.String()}
	if err != nil {
		step.Error = err.Error()
	}
	res.Steps = append(res.Steps, step)
	if err != nil && !errors.Is(err, store.ErrConflict) {
		return err
	}
	return nil
}

// together releases fns at the same instant.
func together(ctx context.Context, fns ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	start := make(chan struct{})
	for _, fn := range fns {
		g.Go(func() error {
			<-start
			return fn(gctx)
		})
	}
	close(start)
	return g.Wait()
}
