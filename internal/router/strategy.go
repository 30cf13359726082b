// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package router dispatches events to every strategy that declares support
// for them. Neither side knows the other's concrete type.
package router

import (
	"context"
	"fmt"

	"github.com/ManuGH/idemflow/internal/domain/event"
)

// Strategy handles one family of events.
type Strategy interface {
	// Supports must be a pure function of the event.
	Supports(ev event.Event) bool
	// Execute applies the event. A no-op (duplicate or illegal transition) is
	// not an error.
	Execute(ctx context.Context, ev event.Event) error
}

// Named is implemented by strategies that want a stable name in logs and spans.
type Named interface {
	Name() string
}

// NameOf returns s.Name() when available, else its Go type.
func NameOf(s Strategy) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

// Selector picks the strategies for an event, in execution order.
type Selector interface {
	SelectAll(ev event.Event) []Strategy
}

// Registry is an immutable, ordered set of strategies built once at startup.
// It is the default Selector.
type Registry struct {
	strategies []Strategy
}

// NewRegistry keeps registration order; nil entries are skipped.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make([]Strategy, 0, len(strategies))}
	for _, s := range strategies {
		if s != nil {
			r.strategies = append(r.strategies, s)
		}
	}
	return r
}

func (r *Registry) SelectAll(ev event.Event) []Strategy {
	var out []Strategy
	for _, s := range r.strategies {
		if s.Supports(ev) {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of registered strategies.
func (r *Registry) Len() int {
	return len(r.strategies)
}

// Names lists the registered strategies in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = NameOf(s)
	}
	return names
}

var _ Selector = (*Registry)(nil)

// StrategyFunc adapts a predicate and handler pair to Strategy.
type StrategyFunc struct {
	ID      string
	Match   func(ev event.Event) bool
	Handler func(ctx context.Context, ev event.Event) error
}

func (f StrategyFunc) Name() string                 { return f.ID }
func (f StrategyFunc) Supports(ev event.Event) bool { return f.Match(ev) }

func (f StrategyFunc) Execute(ctx context.Context, ev event.Event) error {
	return f.Handler(ctx, ev)
}

// ForTypes matches any of the given event types.
func ForTypes(types ...string) func(ev event.Event) bool {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(ev event.Event) bool {
		_, ok := set[ev.Type()]
		return ok
	}
}
