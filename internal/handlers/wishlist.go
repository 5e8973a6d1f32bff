package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"bookflow-backend/internal/middleware"
	"bookflow-backend/internal/services"
)

// WishlistHandler handles wishlist HTTP requests
type WishlistHandler struct {
	userService *services.UserService
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(userService *services.UserService) *WishlistHandler {
	return &WishlistHandler{userService: userService}
}

// WishlistRequest represents the request body for toggling a wishlist entry
type WishlistRequest struct {
	BookID string `json:"book_id" validate:"required"`
	Action string `json:"action" validate:"required,oneof=add remove"`
}

// List handles GET /api/v1/wishlist
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	books, err := h.userService.WishlistBooks(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"wishlist": books})
}

// Update handles POST /api/v1/wishlist
func (h *WishlistHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req WishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, "book_id and action (add|remove) are required", http.StatusBadRequest)
		return
	}

	var wishlist []string
	var err error
	if req.Action == "add" {
		wishlist, err = h.userService.AddWishlist(r.Context(), userID, req.BookID)
	} else {
		wishlist, err = h.userService.RemoveWishlist(r.Context(), userID, req.BookID)
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("book_id", req.BookID).Msg("Failed to update wishlist")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"wishlist": wishlist})
}
