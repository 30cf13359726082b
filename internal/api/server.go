// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes event ingestion and aggregate reads over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/idemflow/internal/api/middleware"
	"github.com/ManuGH/idemflow/internal/domain/event"
	"github.com/ManuGH/idemflow/internal/domain/model"
	"github.com/ManuGH/idemflow/internal/health"
	"github.com/ManuGH/idemflow/internal/usecase"
)

// EventRouter is satisfied by *router.Router.
type EventRouter interface {
	Route(ctx context.Context, ev event.Event) error
}

// PaymentService is satisfied by *usecase.ProcessPaymentEvent.
type PaymentService interface {
	Execute(ctx context.Context, eventID uuid.UUID, paymentID string, target model.PaymentStatus) (usecase.Outcome, error)
	Get(ctx context.Context, paymentID string) (*model.Payment, error)
}

// OrderReader is satisfied by *usecase.OrderService.
type OrderReader interface {
	Get(ctx context.Context, orderID string) (*model.Order, error)
}

// StockService is satisfied by *usecase.StockService.
type StockService interface {
	Seed(ctx context.Context, productID string, qty int) error
	Get(ctx context.Context, productID string) (*model.Stock, error)
}

// Config tunes the ingress stack.
type Config struct {
	RateLimitRPS   int
	TracingService string
	EnableLogging  bool
}

// Deps are the services behind the handlers.
type Deps struct {
	Router   EventRouter
	Payments PaymentService
	Orders   OrderReader
	Stock    StockService
	Health   *health.Manager
}

// Server owns the HTTP routing table.
type Server struct {
	cfg  Config
	deps Deps
}

func NewServer(cfg Config, deps Deps) *Server {
	return &Server{cfg: cfg, deps: deps}
}

// Handler builds the routing table. Probes and /metrics bypass the rate limit.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  true,
		TracingService: s.cfg.TracingService,
		EnableLogging:  s.cfg.EnableLogging,
	})

	if s.deps.Health != nil {
		r.Get("/healthz", s.deps.Health.ServeHealth)
		r.Get("/readyz", s.deps.Health.ServeReady)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(middleware.RateLimitConfig{
				RequestLimit: s.cfg.RateLimitRPS,
				WindowSize:   rateWindow,
			}))
		}
		r.Post("/events", s.handleRouteEvent)
		r.Post("/payments/{id}/events", s.handlePaymentEvent)
		r.Get("/payments/{id}", s.handleGetPayment)
		r.Get("/orders/{id}", s.handleGetOrder)
		r.Get("/stock/{id}", s.handleGetStock)
		r.Put("/stock/{id}", s.handlePutStock)
	})
	return r
}
