// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idemflow_store_ops_total",
			Help: "Total store operations",
		},
		[]string{"backend", "kind", "op", "result"}, // result=success|miss|conflict|error
	)
	StoreOpSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "idemflow_store_op_seconds",
			Help:    "Store operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "kind", "op"},
	)
)

// ObserveStoreOp records one store call and its latency.
func ObserveStoreOp(backend, kind, op, result string, took time.Duration) {
	StoreOpsTotal.WithLabelValues(backend, kind, op, result).Inc()
	StoreOpSeconds.WithLabelValues(backend, kind, op).Observe(took.Seconds())
}
