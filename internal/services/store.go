package services

import (
	"context"
	"time"

	"bookflow-backend/internal/models"
)

// The services depend on narrow store interfaces so the pgx repositories
// and the in-memory store are interchangeable. All reads return copies;
// mutating a returned record never touches stored state.

// BookFilter narrows a book listing
type BookFilter struct {
	Genre   string
	Search  string
	OwnerID string
	Status  string
}

// BookPatch carries partial-field updates for a book; nil fields are untouched
type BookPatch struct {
	Title       *string
	Author      *string
	ISBN        *string
	Cover       *string
	Description *string
	Genre       *string
	Condition   *string
	Location    *string
	Status      *string
}

// ExchangeFilter narrows an exchange listing
type ExchangeFilter struct {
	UserID string
	Status string
}

// UserStore persists users
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	AddToWishlist(ctx context.Context, userID, bookID string) ([]string, error)
	RemoveFromWishlist(ctx context.Context, userID, bookID string) ([]string, error)
}

// BookStore persists books
type BookStore interface {
	CreateBook(ctx context.Context, book *models.Book) error
	GetBookByID(ctx context.Context, id string) (*models.Book, error)
	GetBooksByIDs(ctx context.Context, ids []string) ([]*models.Book, error)
	ListBooks(ctx context.Context, filter BookFilter) ([]*models.Book, error)
	UpdateBook(ctx context.Context, id string, patch BookPatch, at time.Time) (*models.Book, error)
	DeleteBook(ctx context.Context, id string) error
}

// ExchangeStore persists exchanges and applies their status side effects
type ExchangeStore interface {
	CreateExchange(ctx context.Context, exchange *models.Exchange) error
	GetExchangeByID(ctx context.Context, id string) (*models.Exchange, error)
	ListExchanges(ctx context.Context, filter ExchangeFilter) ([]*models.Exchange, error)
	// TransitionExchange compares-and-swaps the exchange status. It fails
	// with apperr.ErrConflict when the current status is not `from`, so
	// concurrent transitions on one exchange serialize to a single winner.
	TransitionExchange(ctx context.Context, id, from, to string, at time.Time) (*models.Exchange, error)
	// CompleteExchange atomically moves the exchange from accepted to
	// completed, re-checks both books are available, marks them exchanged
	// and credits both owners' books_shared. All of it commits or none.
	CompleteExchange(ctx context.Context, id string, at time.Time) (*models.Exchange, error)
	DeleteExchange(ctx context.Context, id string) error
}

// ReviewStore persists reviews and keeps book aggregates in step
type ReviewStore interface {
	// AddReview inserts the review and recomputes the book's rating and
	// reviews_count from the full review set in the same atomic unit.
	// Returns the updated book.
	AddReview(ctx context.Context, review *models.Review) (*models.Book, error)
	ListReviewsByBook(ctx context.Context, bookID string) ([]*models.Review, error)
}
