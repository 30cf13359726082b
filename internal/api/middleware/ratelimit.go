// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httprate"

	"github.com/ManuGH/idemflow/internal/log"
)

// HeaderClientID lets event producers share one budget across addresses.
const HeaderClientID = "X-Client-ID"

type RateLimitConfig struct {
	RequestLimit int
	WindowSize   time.Duration
	// KeyFunc defaults to KeyByClient.
	KeyFunc func(r *http.Request) (string, error)
}

// KeyByClient keys by the X-Client-ID header and falls back to the remote IP.
func KeyByClient(r *http.Request) (string, error) {
	if id := strings.TrimSpace(r.Header.Get(HeaderClientID)); id != "" {
		return "client:" + id, nil
	}
	return httprate.KeyByIP(r)
}

// RateLimit rejects requests over the budget with 429 and the API's error
// body.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = KeyByClient
	}
	retryAfter := strconv.Itoa(max(1, int(cfg.WindowSize.Seconds())))

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger := log.WithComponentFromContext(r.Context(), "api")
			logger.Warn().
				Str(log.FieldEvent, "api.rate_limited").
				Str("path", r.URL.Path).
				Msg("request rejected by rate limit")

			w.Header().Set("Retry-After", retryAfter)
			writeErrorBody(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests")
		}),
	)
}
