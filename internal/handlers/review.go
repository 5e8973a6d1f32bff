package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"bookflow-backend/internal/middleware"
	"bookflow-backend/internal/services"
)

// ReviewHandler handles review-related HTTP requests
type ReviewHandler struct {
	reviewService *services.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// CreateReviewRequest represents the request body for creating a review
type CreateReviewRequest struct {
	BookID  string `json:"book_id" validate:"required"`
	Rating  int    `json:"rating" validate:"required"`
	Comment string `json:"comment"`
}

// Create handles POST /api/v1/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, "book_id and rating are required", http.StatusBadRequest)
		return
	}

	review, book, err := h.reviewService.RecordReview(r.Context(), req.BookID, userID, req.Rating, req.Comment)
	if err != nil {
		log.Error().
			Err(err).
			Str("book_id", req.BookID).
			Str("user_id", userID).
			Msg("Failed to record review")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("review_id", review.ID).
		Str("book_id", book.ID).
		Float64("rating", book.Rating).
		Int("reviews_count", book.ReviewsCount).
		Msg("Review recorded")

	respondJSON(w, http.StatusCreated, map[string]any{"review": review, "book": book})
}

// List handles GET /api/v1/reviews?book_id=
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	bookID := r.URL.Query().Get("book_id")
	if bookID == "" {
		respondError(w, "book_id is required", http.StatusBadRequest)
		return
	}

	reviews, err := h.reviewService.ListByBook(r.Context(), bookID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}
