// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/idemflow/internal/api/middleware"
	"github.com/ManuGH/idemflow/internal/domain/event"
	"github.com/ManuGH/idemflow/internal/domain/model"
	"github.com/ManuGH/idemflow/internal/domain/store"
	"github.com/ManuGH/idemflow/internal/log"
	"github.com/ManuGH/idemflow/internal/router"
	"github.com/ManuGH/idemflow/internal/usecase"
)

// Error codes returned in the "error" field.
const (
	CodeInvalidRequest    = "invalid_request"
	CodeNoStrategy        = "no_strategy"
	CodeVersionConflict   = "version_conflict"
	CodeInsufficientStock = "insufficient_stock"
	CodeNotFound          = "not_found"
	CodeInternal          = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse = middleware.ErrorResponse

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	resp := ErrorResponse{Error: code, RequestID: log.RequestIDFromContext(r.Context())}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeError classifies domain errors into HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "api.internal_error").
			Str("path", r.URL.Path).
			Msg("request failed")
		writeErrorCode(w, r, status, code, nil)
		return
	}
	writeErrorCode(w, r, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, router.ErrNoStrategy):
		return http.StatusUnprocessableEntity, CodeNoStrategy
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, CodeVersionConflict
	case errors.Is(err, model.ErrInsufficientStock):
		return http.StatusUnprocessableEntity, CodeInsufficientStock
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, event.ErrMissingPayload),
		errors.Is(err, event.ErrEmptyType),
		errors.Is(err, model.ErrInvalidStatus),
		errors.Is(err, usecase.ErrInvalidCommand):
		return http.StatusBadRequest, CodeInvalidRequest
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
