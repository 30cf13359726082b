// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package router

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/idemflow/internal/domain/event"
	"github.com/ManuGH/idemflow/internal/log"
	"github.com/ManuGH/idemflow/internal/metrics"
	"github.com/ManuGH/idemflow/internal/telemetry"
)

// Router dispatches events through a Selector.
type Router struct {
	selector Selector
	tracer   trace.Tracer
}

// Option configures a Router.
type Option func(*Router)

// WithTracer overrides the tracer (defaults to the global provider).
func WithTracer(t trace.Tracer) Option {
	return func(r *Router) { r.tracer = t }
}

func New(selector Selector, opts ...Option) *Router {
	r := &Router{selector: selector}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracer == nil {
		r.tracer = telemetry.Tracer(telemetry.InstrumentationName)
	}
	return r
}

// Route executes every matching strategy in order. With no match it returns a
// *NoStrategyError and touches nothing. Execution stops at the first failing
// strategy and that error is returned unchanged; strategies that already ran
// are not rolled back.
func (r *Router) Route(ctx context.Context, ev event.Event) error {
	ctx, span := r.tracer.Start(ctx, "router.route",
		trace.WithAttributes(telemetry.EventAttributes(ev.ID().String(), ev.Type())...))
	defer span.End()

	ctx = log.ContextWithEventID(ctx, ev.ID().String())
	logger := log.WithComponentFromContext(ctx, "router")

	matches := r.selector.SelectAll(ev)
	span.SetAttributes(attribute.Int(telemetry.RouteMatchesKey, len(matches)))
	if len(matches) == 0 {
		err := &NoStrategyError{EventID: ev.ID(), EventType: ev.Type()}
		metrics.RecordRoute(ev.Type(), metrics.RouteNoStrategy)
		logger.Warn().
			Str(log.FieldEvent, "router.no_strategy").
			Str(log.FieldEventType, ev.Type()).
			Msg("no strategy supports event")
		span.SetAttributes(telemetry.ErrorAttributes("no_strategy")...)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	for _, s := range matches {
		name := NameOf(s)
		if err := s.Execute(ctx, ev); err != nil {
			metrics.RecordRoute(ev.Type(), metrics.RouteFailed)
			logger.Warn().
				Err(err).
				Str(log.FieldEvent, "router.strategy_failed").
				Str(log.FieldEventType, ev.Type()).
				Str(log.FieldStrategy, name).
				Msg("strategy failed")
			span.SetAttributes(attribute.String(telemetry.RouteStrategyKey, name))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		logger.Debug().
			Str(log.FieldEvent, "router.strategy_done").
			Str(log.FieldEventType, ev.Type()).
			Str(log.FieldStrategy, name).
			Msg("strategy executed")
	}
	metrics.RecordRoute(ev.Type(), metrics.RouteRouted)
	return nil
}

// RouteAll routes a batch in order and stops at the first error.
func (r *Router) RouteAll(ctx context.Context, evs []event.Event) error {
	for _, ev := range evs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Route(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
