package services

import (
	"context"
	"fmt"
	"time"

	"bookflow-backend/internal/apperr"
	"bookflow-backend/internal/models"

	"github.com/google/uuid"
)

// ReviewService records reviews and keeps book rating aggregates consistent
type ReviewService struct {
	reviews ReviewStore
}

// NewReviewService creates a new review service
func NewReviewService(reviews ReviewStore) *ReviewService {
	return &ReviewService{reviews: reviews}
}

// RecordReview appends a review and returns it together with the book
// carrying the freshly recomputed rating and reviews_count. Out-of-range
// ratings and unknown books fail with no partial effect.
func (s *ReviewService) RecordReview(ctx context.Context, bookID, authorID string, rating int, comment string) (*models.Review, *models.Book, error) {
	if rating < 1 || rating > 5 {
		return nil, nil, fmt.Errorf("%w: rating must be between 1 and 5", apperr.ErrValidation)
	}

	review := &models.Review{
		ID:        uuid.New().String(),
		BookID:    bookID,
		UserID:    authorID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}

	book, err := s.reviews.AddReview(ctx, review)
	if err != nil {
		return nil, nil, err
	}
	return review, book, nil
}

// ListByBook retrieves a book's reviews
func (s *ReviewService) ListByBook(ctx context.Context, bookID string) ([]*models.Review, error) {
	return s.reviews.ListReviewsByBook(ctx, bookID)
}
