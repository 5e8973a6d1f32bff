package services

import (
	"context"
	"fmt"
	"time"

	"bookflow-backend/internal/apperr"
	"bookflow-backend/internal/models"

	"github.com/google/uuid"
)

// BookService handles book listing business logic
type BookService struct {
	books   BookStore
	reviews ReviewStore
}

// NewBookService creates a new book service
func NewBookService(books BookStore, reviews ReviewStore) *BookService {
	return &BookService{
		books:   books,
		reviews: reviews,
	}
}

// BookInput carries the fields accepted when listing a book
type BookInput struct {
	Title       string
	Author      string
	ISBN        string
	Cover       string
	Description string
	Genre       string
	Condition   string
	Location    string
}

// Create lists a new book owned by ownerID, status available, no reviews yet
func (s *BookService) Create(ctx context.Context, ownerID string, in BookInput) (*models.Book, error) {
	if !validCondition(in.Condition) {
		return nil, fmt.Errorf("%w: condition must be one of like-new, good, fair", apperr.ErrValidation)
	}

	now := time.Now()
	book := &models.Book{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Author:      in.Author,
		ISBN:        in.ISBN,
		Cover:       in.Cover,
		Description: in.Description,
		Genre:       in.Genre,
		Condition:   in.Condition,
		OwnerID:     ownerID,
		Location:    in.Location,
		Status:      models.BookAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.books.CreateBook(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// Get retrieves a book together with its reviews
func (s *BookService) Get(ctx context.Context, id string) (*models.Book, []*models.Review, error) {
	book, err := s.books.GetBookByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	reviews, err := s.reviews.ListReviewsByBook(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return book, reviews, nil
}

// List retrieves books matching the filter
func (s *BookService) List(ctx context.Context, filter BookFilter) ([]*models.Book, error) {
	return s.books.ListBooks(ctx, filter)
}

// Update patches a book; only the owner may edit
func (s *BookService) Update(ctx context.Context, id, actingUserID string, patch BookPatch) (*models.Book, error) {
	book, err := s.books.GetBookByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book.OwnerID != actingUserID {
		return nil, apperr.ErrForbidden
	}
	if patch.Condition != nil && !validCondition(*patch.Condition) {
		return nil, fmt.Errorf("%w: condition must be one of like-new, good, fair", apperr.ErrValidation)
	}
	if patch.Status != nil && !validBookStatus(*patch.Status) {
		return nil, fmt.Errorf("%w: status must be one of available, borrowed, exchanged", apperr.ErrValidation)
	}
	return s.books.UpdateBook(ctx, id, patch, time.Now())
}

// Delete removes a book; only the owner may delete
func (s *BookService) Delete(ctx context.Context, id, actingUserID string) error {
	book, err := s.books.GetBookByID(ctx, id)
	if err != nil {
		return err
	}
	if book.OwnerID != actingUserID {
		return apperr.ErrForbidden
	}
	return s.books.DeleteBook(ctx, id)
}

func validCondition(condition string) bool {
	switch condition {
	case models.ConditionLikeNew, models.ConditionGood, models.ConditionFair:
		return true
	}
	return false
}

func validBookStatus(status string) bool {
	switch status {
	case models.BookAvailable, models.BookBorrowed, models.BookExchanged:
		return true
	}
	return false
}
