// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestContextWithRequestID(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		requestID string
		want      string
	}{
		{
			name:      "nil context",
			ctx:       nil,
			requestID: "test-id-123",
			want:      "test-id-123",
		},
		{
			name:      "background context",
			ctx:       context.Background(),
			requestID: "req-456",
			want:      "req-456",
		},
		{
			name:      "empty request ID",
			ctx:       context.Background(),
			requestID: "",
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRequestID(tt.ctx, tt.requestID)
			got := RequestIDFromContext(ctx)
			if got != tt.want {
				t.Errorf("RequestIDFromContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContextWithEventID(t *testing.T) {
	ctx := ContextWithEventID(nil, "3b2e6a9c-0000-4000-8000-000000000001") //nolint:staticcheck // nil ctx is part of the contract
	if got := EventIDFromContext(ctx); got != "3b2e6a9c-0000-4000-8000-000000000001" {
		t.Errorf("EventIDFromContext() = %v", got)
	}
	if got := EventIDFromContext(context.WithValue(context.Background(), eventIDKey, 42)); got != "" {
		t.Errorf("wrong type must yield empty id, got %v", got)
	}
}

func captureBase(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	mu.Lock()
	prev, prevConfigured := base, configured
	base = zerolog.New(&buf)
	configured = true
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		base, configured = prev, prevConfigured
		mu.Unlock()
	})
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestWithContext(t *testing.T) {
	buf := captureBase(t)

	ctx := ContextWithRequestID(context.Background(), "req-123")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	ctx = ContextWithEventID(ctx, "evt-1")
	l := WithContext(ctx, Base())
	l.Info().Msg("enriched")

	entry := decodeLine(t, buf)
	for field, want := range map[string]string{
		FieldRequestID:     "req-123",
		FieldCorrelationID: "corr-1",
		FieldEventID:       "evt-1",
	} {
		if entry[field] != want {
			t.Errorf("%s = %v, want %v", field, entry[field], want)
		}
	}

	// Empty context returns the logger unchanged.
	plain := WithContext(context.Background(), Base())
	if plain.GetLevel() != Base().GetLevel() {
		t.Error("Logger level should be preserved")
	}
}

func TestWithComponentFromContext(t *testing.T) {
	buf := captureBase(t)

	l := WithComponentFromContext(ContextWithEventID(context.Background(), "evt-9"), "router")
	l.Info().Msg("x")

	entry := decodeLine(t, buf)
	if entry[FieldComponent] != "router" || entry[FieldEventID] != "evt-9" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestWithTraceContext(t *testing.T) {
	// Noop tracer yields an invalid span context: no trace fields.
	noopTracer := noop.NewTracerProvider().Tracer("test")
	ctx, span := noopTracer.Start(context.Background(), "test-span")
	defer span.End()

	buf := captureBase(t)
	l := WithTraceContext(ctx)
	l.Info().Msg("no trace")
	if _, ok := decodeLine(t, buf)[FieldTraceID]; ok {
		t.Error("noop span must not add trace_id")
	}

	t.Run("WithValidSpan", func(t *testing.T) {
		traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
		spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		})
		ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

		buf := captureBase(t)
		l := WithTraceContext(ctx)
		l.Info().Msg("test with trace")

		entry := decodeLine(t, buf)
		if entry[FieldTraceID] != "4bf92f3577b34da6a3ce929d0e0e4736" {
			t.Errorf("trace_id = %v", entry[FieldTraceID])
		}
		if entry[FieldSpanID] != "00f067aa0ba902b7" {
			t.Errorf("span_id = %v", entry[FieldSpanID])
		}
	})
}
