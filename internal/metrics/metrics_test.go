// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/idemflow/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
)

func TestPromhttpExposure(t *testing.T) {
	metrics.RecordRoute("PAYMENT_APPROVED", metrics.RouteRouted)
	metrics.ObserveStoreOp("memory", "payment", "save", "success", time.Millisecond)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	promhttp.Handler().ServeHTTP(recorder, req)

	body := recorder.Body.String()
	for _, name := range []string{"idemflow_router_events_total", "idemflow_store_ops_total", "idemflow_store_op_seconds"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s metric to be present", name)
		}
	}
}

func TestRecordOutcome(t *testing.T) {
	c := metrics.EventOutcomesTotal.WithLabelValues("order", "noop")
	before := metrics.CounterValue(c)

	metrics.RecordOutcome("order", "noop")
	metrics.RecordOutcome("order", "noop")

	require.InDelta(t, before+2, metrics.CounterValue(c), 0.001)
}

func TestEmptyLabelsBecomeUnknown(t *testing.T) {
	c := metrics.BusDroppedTotal.WithLabelValues("unknown", "unknown")
	before := metrics.CounterValue(c)

	metrics.IncBusDropReason("", "")

	require.InDelta(t, before+1, metrics.CounterValue(c), 0.001)
}
