// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package strategy

import "github.com/ManuGH/idemflow/internal/router"

// Default builds the registry used by the daemon: payments first, then orders.
func Default(payments PaymentExecutor, orders OrderHandler) *router.Registry {
	all := []router.Strategy{NewPaymentStrategy(payments)}
	all = append(all, OrderStrategies(orders)...)
	return router.NewRegistry(all...)
}
