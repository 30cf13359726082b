// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/idemflow/internal/domain/event"
	"github.com/ManuGH/idemflow/internal/domain/model"
	"github.com/ManuGH/idemflow/internal/domain/store"
	"github.com/ManuGH/idemflow/internal/health"
	"github.com/ManuGH/idemflow/internal/router"
	"github.com/ManuGH/idemflow/internal/strategy"
	"github.com/ManuGH/idemflow/internal/usecase"
)

type testEnv struct {
	handler  http.Handler
	payments *usecase.ProcessPaymentEvent
	stock    *usecase.StockService
}

func newTestEnv(t *testing.T, cfg Config) testEnv {
	t.Helper()
	payments := usecase.NewProcessPaymentEvent(store.NewMemoryStore[*model.Payment](model.KindPayment), nil)
	stock := usecase.NewStockService(store.NewMemoryStore[*model.Stock](model.KindStock))
	orders := usecase.NewOrderService(store.NewMemoryStore[*model.Order](model.KindOrder), stock)
	srv := NewServer(cfg, Deps{
		Router:   router.New(strategy.Default(payments, orders)),
		Payments: payments,
		Orders:   orders,
		Stock:    stock,
		Health:   health.NewManager("test"),
	})
	return testEnv{handler: srv.Handler(), payments: payments, stock: stock}
}

func (e testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "10.1.1.1:4000"
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRouteEvent(t *testing.T) {
	env := newTestEnv(t, Config{})

	ev := event.New(event.TypePaymentAuthorized, map[string]any{event.KeyPaymentID: "p-1"})
	rec := env.do(t, http.MethodPost, "/api/v1/events", ev.Envelope())
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "routed", decode[RouteResponse](t, rec).Status)

	rec = env.do(t, http.MethodPost, "/api/v1/events", event.New("INVOICE_SENT", nil).Envelope())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, CodeNoStrategy, decode[ErrorResponse](t, rec).Error)

	rec = env.do(t, http.MethodPost, "/api/v1/events", map[string]any{"eventId": "x", "type": "T"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/events",
		event.New(event.TypePaymentApproved, map[string]any{}).Envelope())
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing paymentId")
}

func TestRouteEvent_InsufficientStock(t *testing.T) {
	env := newTestEnv(t, Config{})
	create := event.New(event.TypeOrderCreated, map[string]any{
		event.KeyOrderID: "o-1",
		event.KeyItems:   map[string]any{"sku-1": 3},
	})
	require.Equal(t, http.StatusAccepted, env.do(t, http.MethodPost, "/api/v1/events", create.Envelope()).Code)

	confirm := event.New(event.TypeOrderConfirmed, map[string]any{event.KeyOrderID: "o-1"})
	rec := env.do(t, http.MethodPost, "/api/v1/events", confirm.Envelope())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, CodeInsufficientStock, decode[ErrorResponse](t, rec).Error)

	rec = env.do(t, http.MethodPut, "/api/v1/stock/sku-1", StockRequest{Quantity: 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/events", confirm.Envelope())
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/stock/sku-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[struct {
		Available int `json:"available"`
	}](t, rec).Available)

	rec = env.do(t, http.MethodGet, "/api/v1/orders/o-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CONFIRMED", decode[map[string]any](t, rec)["status"])
}

func TestPaymentEvent_Outcomes(t *testing.T) {
	env := newTestEnv(t, Config{})
	id := uuid.New()
	body := PaymentEventRequest{EventID: id.String(), Status: "AUTHORIZED"}

	rec := env.do(t, http.MethodPost, "/api/v1/payments/p-1/events", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[OutcomeResponse](t, rec)
	assert.Equal(t, "applied", got.Outcome)
	assert.Equal(t, "AUTHORIZED", got.Status)
	assert.Equal(t, uint64(1), got.Version)

	rec = env.do(t, http.MethodPost, "/api/v1/payments/p-1/events", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "noop", decode[OutcomeResponse](t, rec).Outcome)

	rec = env.do(t, http.MethodPost, "/api/v1/payments/p-1/events", PaymentEventRequest{EventID: uuid.NewString(), Status: "SETTLED"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/payments/p-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snapshot := decode[map[string]any](t, rec)
	assert.Equal(t, "AUTHORIZED", snapshot["status"])
	assert.Equal(t, []any{id.String()}, snapshot["appliedEventIds"])

	rec = env.do(t, http.MethodGet, "/api/v1/payments/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// conflictOnce lets two requests load the same version before either saves.
type conflictOnce struct {
	store.Store[*model.Payment]
	wg    sync.WaitGroup
	calls atomic.Int32
}

func (c *conflictOnce) FindByID(ctx context.Context, key string) (*model.Payment, bool, error) {
	p, ok, err := c.Store.FindByID(ctx, key)
	if c.calls.Add(1) <= 2 {
		c.wg.Done()
		c.wg.Wait()
	}
	return p, ok, err
}

func TestPaymentEvent_ConcurrentConflictIs409(t *testing.T) {
	gated := &conflictOnce{Store: store.NewMemoryStore[*model.Payment](model.KindPayment)}
	gated.wg.Add(2)
	payments := usecase.NewProcessPaymentEvent(gated, nil)
	h := NewServer(Config{}, Deps{Payments: payments}).Handler()

	id := uuid.NewString()
	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, _ := json.Marshal(PaymentEventRequest{EventID: id, Status: "AUTHORIZED"})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/p-1/events", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}()
	}
	wg.Wait()
	assert.ElementsMatch(t, []int{http.StatusOK, http.StatusConflict}, codes)
}

func TestProbesAndMetrics(t *testing.T) {
	env := newTestEnv(t, Config{RateLimitRPS: 1})
	for range 3 {
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil).Code)
	}
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/readyz", nil).Code)

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "idemflow_http_requests_in_flight")
}

func TestRateLimitAppliesToAPI(t *testing.T) {
	env := newTestEnv(t, Config{RateLimitRPS: 2})
	codes := map[int]int{}
	for range 4 {
		codes[env.do(t, http.MethodGet, "/api/v1/stock/none", nil).Code]++
	}
	assert.Positive(t, codes[http.StatusTooManyRequests])
	assert.Positive(t, codes[http.StatusNotFound])
}
