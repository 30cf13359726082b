// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ManuGH/idemflow/internal/domain/event"
	"github.com/ManuGH/idemflow/internal/domain/model"
	"github.com/ManuGH/idemflow/internal/log"
	"github.com/ManuGH/idemflow/internal/usecase"
)

const (
	maxBodyBytes = 1 << 20
	rateWindow   = time.Second
)

var errEmptyBody = errors.New("request body is empty")

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// RouteResponse acknowledges an event accepted by POST /api/v1/events.
type RouteResponse struct {
	EventID string `json:"eventId"`
	Type    string `json:"type"`
	Status  string `json:"status"`
}

func (s *Server) handleRouteEvent(w http.ResponseWriter, r *http.Request) {
	var env event.Envelope
	if err := decodeBody(w, r, &env); err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}
	ev, err := event.FromEnvelope(env)
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}
	ctx := log.ContextWithEventID(r.Context(), ev.ID().String())
	if err := s.deps.Router.Route(ctx, ev); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, RouteResponse{EventID: ev.ID().String(), Type: ev.Type(), Status: "routed"})
}

// PaymentEventRequest is the body of POST /api/v1/payments/{id}/events.
type PaymentEventRequest struct {
	EventID string `json:"eventId"`
	Status  string `json:"status"`
}

// OutcomeResponse reports what a single payment event did.
type OutcomeResponse struct {
	EventID   string `json:"eventId"`
	PaymentID string `json:"paymentId"`
	Outcome   string `json:"outcome"`
	Status    string `json:"status,omitempty"`
	Version   uint64 `json:"version,omitempty"`
}

func (s *Server) handlePaymentEvent(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "id")
	var req PaymentEventRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, CodeInvalidRequest, fmt.Errorf("eventId: %w", err))
		return
	}
	target, err := model.ParsePaymentStatus(req.Status)
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}

	ctx := log.ContextWithEventID(r.Context(), eventID.String())
	out, err := s.deps.Payments.Execute(ctx, eventID, paymentID, target)
	resp := OutcomeResponse{EventID: eventID.String(), PaymentID: paymentID, Outcome: out.String()}
	switch {
	case out == usecase.OutcomeConflict:
		writeJSON(w, http.StatusConflict, resp)
		return
	case err != nil:
		writeError(w, r, err)
		return
	}
	if p, gerr := s.deps.Payments.Get(ctx, paymentID); gerr == nil {
		resp.Status = string(p.Status())
		resp.Version = p.Version()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Payments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.deps.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleGetStock(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Stock.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// StockRequest is the body of PUT /api/v1/stock/{id}. Quantity is added to
// the available count.
type StockRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) handlePutStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	var req StockRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}
	if err := s.deps.Stock.Seed(r.Context(), productID, req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	s.handleGetStock(w, r)
}
