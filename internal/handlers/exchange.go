package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"bookflow-backend/internal/middleware"
	"bookflow-backend/internal/services"
)

// ExchangeHandler handles exchange-related HTTP requests
type ExchangeHandler struct {
	exchangeService *services.ExchangeService
	hub             *services.Hub
}

// NewExchangeHandler creates a new exchange handler
func NewExchangeHandler(exchangeService *services.ExchangeService, hub *services.Hub) *ExchangeHandler {
	return &ExchangeHandler{
		exchangeService: exchangeService,
		hub:             hub,
	}
}

// ProposeRequest represents the request body for proposing an exchange
type ProposeRequest struct {
	ResponderID     string `json:"responder_id" validate:"required"`
	InitiatorBookID string `json:"initiator_book_id" validate:"required"`
	ResponderBookID string `json:"responder_book_id" validate:"required"`
}

// TransitionRequest represents the request body for a status change
type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// List handles GET /api/v1/exchanges
func (h *ExchangeHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := services.ExchangeFilter{
		UserID: r.URL.Query().Get("user_id"),
		Status: r.URL.Query().Get("status"),
	}

	exchanges, err := h.exchangeService.List(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list exchanges")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"exchanges": exchanges})
}

// Propose handles POST /api/v1/exchanges
func (h *ExchangeHandler) Propose(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req ProposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, "responder_id, initiator_book_id and responder_book_id are required", http.StatusBadRequest)
		return
	}

	exchange, err := h.exchangeService.Propose(r.Context(), userID, req.ResponderID, req.InitiatorBookID, req.ResponderBookID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("responder_id", req.ResponderID).
			Msg("Failed to propose exchange")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("exchange_id", exchange.ID).
		Str("initiator_id", exchange.InitiatorID).
		Str("responder_id", exchange.ResponderID).
		Msg("Exchange proposed")

	h.hub.NotifyExchangeProposed(exchange)
	respondJSON(w, http.StatusCreated, map[string]any{"exchange": exchange})
}

// Transition handles PUT /api/v1/exchanges/{id}
func (h *ExchangeHandler) Transition(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, "status is required", http.StatusBadRequest)
		return
	}

	exchange, err := h.exchangeService.Transition(r.Context(), id, req.Status, userID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("exchange_id", id).
			Str("user_id", userID).
			Str("requested", req.Status).
			Msg("Exchange transition rejected")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("exchange_id", exchange.ID).
		Str("status", exchange.Status).
		Str("user_id", userID).
		Msg("Exchange transitioned")

	h.hub.NotifyExchangeUpdated(exchange)
	respondJSON(w, http.StatusOK, map[string]any{"exchange": exchange})
}

// Remove handles DELETE /api/v1/exchanges/{id}
func (h *ExchangeHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.exchangeService.Remove(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().Str("exchange_id", id).Str("user_id", userID).Msg("Exchange removed")
	w.WriteHeader(http.StatusNoContent)
}
