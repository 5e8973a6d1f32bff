package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"bookflow-backend/internal/middleware"
	"bookflow-backend/internal/services"
)

// BookHandler handles book-related HTTP requests
type BookHandler struct {
	bookService  *services.BookService
	coverService *services.CoverService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *services.BookService, coverService *services.CoverService) *BookHandler {
	return &BookHandler{
		bookService:  bookService,
		coverService: coverService,
	}
}

// CreateBookRequest represents the request body for listing a book
type CreateBookRequest struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	ISBN        string `json:"isbn"`
	Cover       string `json:"cover"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
	Condition   string `json:"condition" validate:"required"`
	Location    string `json:"location"`
}

// UpdateBookRequest carries a partial book patch; absent fields stay as-is
type UpdateBookRequest struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	ISBN        *string `json:"isbn"`
	Cover       *string `json:"cover"`
	Description *string `json:"description"`
	Genre       *string `json:"genre"`
	Condition   *string `json:"condition"`
	Location    *string `json:"location"`
	Status      *string `json:"status"`
}

// List handles GET /api/v1/books
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := services.BookFilter{
		Genre:   r.URL.Query().Get("genre"),
		Search:  r.URL.Query().Get("search"),
		OwnerID: r.URL.Query().Get("owner_id"),
		Status:  r.URL.Query().Get("status"),
	}

	books, err := h.bookService.List(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list books")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"books": books})
}

// Get handles GET /api/v1/books/{id}
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	book, reviews, err := h.bookService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"book": book, "reviews": reviews})
}

// Create handles POST /api/v1/books
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, "title, author and condition are required", http.StatusBadRequest)
		return
	}

	book, err := h.bookService.Create(r.Context(), userID, services.BookInput{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Cover:       req.Cover,
		Description: req.Description,
		Genre:       req.Genre,
		Condition:   req.Condition,
		Location:    req.Location,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create book")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("book_id", book.ID).Msg("Book listed")
	respondJSON(w, http.StatusCreated, map[string]any{"book": book})
}

// Update handles PUT /api/v1/books/{id}
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	var req UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	book, err := h.bookService.Update(r.Context(), id, userID, services.BookPatch{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Cover:       req.Cover,
		Description: req.Description,
		Genre:       req.Genre,
		Condition:   req.Condition,
		Location:    req.Location,
		Status:      req.Status,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"book": book})
}

// Delete handles DELETE /api/v1/books/{id}
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.bookService.Delete(r.Context(), id, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("book_id", id).Msg("Book deleted")
	w.WriteHeader(http.StatusNoContent)
}

// CoverUploadRequest represents the request body for a cover upload URL
type CoverUploadRequest struct {
	ContentType string `json:"content_type"`
}

// CoverUpload handles POST /api/v1/books/cover-upload
func (h *BookHandler) CoverUpload(w http.ResponseWriter, r *http.Request) {
	if h.coverService == nil {
		respondError(w, "Cover uploads are not configured", http.StatusNotImplemented)
		return
	}

	var req CoverUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}

	resp, err := h.coverService.PresignCoverUpload(r.Context(), req.ContentType)
	if err != nil {
		log.Error().Err(err).Msg("Failed to presign cover upload")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
