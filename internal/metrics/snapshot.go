// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// CounterValue reads the current value of a single counter series.
func CounterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// OutcomeCounts returns applied/noop/conflict/error totals for one aggregate
// kind, as shown in scenario reports.
func OutcomeCounts(aggregate string) map[string]float64 {
	out := make(map[string]float64, 4)
	for _, outcome := range []string{"applied", "noop", "conflict", "error"} {
		out[outcome] = CounterValue(EventOutcomesTotal.WithLabelValues(aggregate, outcome))
	}
	return out
}
