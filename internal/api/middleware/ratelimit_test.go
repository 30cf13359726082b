// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limited(limit int) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
	return RequestID(RateLimit(RateLimitConfig{RequestLimit: limit, WindowSize: time.Minute})(ok))
}

func post(h http.Handler, remote, clientID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	req.RemoteAddr = remote
	if clientID != "" {
		req.Header.Set(HeaderClientID, clientID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_RejectsOverBudgetWithErrorBody(t *testing.T) {
	h := limited(2)
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusAccepted, post(h, "10.0.0.1:5000", "").Code)
	}

	rec := post(h, "10.0.0.1:5000", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "rate_limited", body["error"])
	assert.Equal(t, rec.Header().Get(HeaderRequestID), body["requestId"])
}

func TestRateLimit_KeysByClientID(t *testing.T) {
	h := limited(1)

	// One producer behind two addresses shares a budget.
	require.Equal(t, http.StatusAccepted, post(h, "10.0.0.1:5000", "producer-a").Code)
	assert.Equal(t, http.StatusTooManyRequests, post(h, "10.0.0.2:5000", "producer-a").Code)

	// Other producers and anonymous callers are unaffected.
	assert.Equal(t, http.StatusAccepted, post(h, "10.0.0.1:5000", "producer-b").Code)
	assert.Equal(t, http.StatusAccepted, post(h, "10.0.0.3:5000", "").Code)
}
