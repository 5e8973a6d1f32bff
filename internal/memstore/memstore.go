// Package memstore is an in-memory record store used by tests and the
// memory storage mode. A single mutex guards all tables, which makes the
// multi-record operations (exchange completion, review aggregation)
// trivially atomic.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bookflow-backend/internal/apperr"
	"bookflow-backend/internal/models"
	"bookflow-backend/internal/services"
)

// Store holds all tables behind one lock
type Store struct {
	mu        sync.RWMutex
	users     map[string]models.User
	books     map[string]models.Book
	exchanges map[string]models.Exchange
	reviews   map[string]models.Review
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		users:     make(map[string]models.User),
		books:     make(map[string]models.Book),
		exchanges: make(map[string]models.Exchange),
		reviews:   make(map[string]models.Review),
	}
}

// CreateUser inserts a new user; the email must be unused
func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return apperr.ErrEmailTaken
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	out := cloneUser(&u)
	return &out, nil
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			out := cloneUser(&u)
			return &out, nil
		}
	}
	return nil, apperr.ErrNotFound
}

// AddToWishlist adds a book id to the user's wishlist set
func (s *Store) AddToWishlist(_ context.Context, userID, bookID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	found := false
	for _, id := range u.Wishlist {
		if id == bookID {
			found = true
			break
		}
	}
	if !found {
		u.Wishlist = append(u.Wishlist, bookID)
		s.users[userID] = u
	}
	return append([]string(nil), u.Wishlist...), nil
}

// RemoveFromWishlist removes a book id from the user's wishlist set
func (s *Store) RemoveFromWishlist(_ context.Context, userID, bookID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	kept := u.Wishlist[:0:0]
	for _, id := range u.Wishlist {
		if id != bookID {
			kept = append(kept, id)
		}
	}
	u.Wishlist = kept
	s.users[userID] = u
	return append([]string(nil), u.Wishlist...), nil
}

// CreateBook inserts a new book
func (s *Store) CreateBook(_ context.Context, book *models.Book) error {
	s.mu.Lock()
	s.books[book.ID] = *book
	s.mu.Unlock()
	return nil
}

// GetBookByID retrieves a book by ID
func (s *Store) GetBookByID(_ context.Context, id string) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	out := b
	return &out, nil
}

// GetBooksByIDs retrieves the books whose ids are present; missing ids are skipped
func (s *Store) GetBooksByIDs(_ context.Context, ids []string) ([]*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]*models.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := s.books[id]; ok {
			out := b
			books = append(books, &out)
		}
	}
	return books, nil
}

// ListBooks retrieves books matching the filter, newest first
func (s *Store) ListBooks(_ context.Context, filter services.BookFilter) ([]*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var books []*models.Book
	search := strings.ToLower(filter.Search)
	for _, b := range s.books {
		if filter.Genre != "" && filter.Genre != "all" && b.Genre != filter.Genre {
			continue
		}
		if filter.OwnerID != "" && b.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(b.Title), search) &&
			!strings.Contains(strings.ToLower(b.Author), search) &&
			!strings.Contains(strings.ToLower(b.Description), search) {
			continue
		}
		out := b
		books = append(books, &out)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].CreatedAt.After(books[j].CreatedAt) })
	return books, nil
}

// UpdateBook applies a partial patch to a book
func (s *Store) UpdateBook(_ context.Context, id string, patch services.BookPatch, at time.Time) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	applyPatch(&b, patch)
	b.UpdatedAt = at
	s.books[id] = b
	out := b
	return &out, nil
}

// DeleteBook removes a book
func (s *Store) DeleteBook(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(s.books, id)
	return nil
}

// CreateExchange inserts a new exchange
func (s *Store) CreateExchange(_ context.Context, exchange *models.Exchange) error {
	s.mu.Lock()
	s.exchanges[exchange.ID] = *exchange
	s.mu.Unlock()
	return nil
}

// GetExchangeByID retrieves an exchange by ID
func (s *Store) GetExchangeByID(_ context.Context, id string) (*models.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.exchanges[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	out := e
	return &out, nil
}

// ListExchanges retrieves exchanges matching the filter, newest first
func (s *Store) ListExchanges(_ context.Context, filter services.ExchangeFilter) ([]*models.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exchanges []*models.Exchange
	for _, e := range s.exchanges {
		if filter.UserID != "" && !e.Involves(filter.UserID) {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out := e
		exchanges = append(exchanges, &out)
	}
	sort.Slice(exchanges, func(i, j int) bool {
		return exchanges[i].CreatedAt.After(exchanges[j].CreatedAt)
	})
	return exchanges, nil
}

// TransitionExchange compares-and-swaps the exchange status
func (s *Store) TransitionExchange(_ context.Context, id, from, to string, at time.Time) (*models.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.exchanges[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if e.Status != from {
		return nil, apperr.ErrConflict
	}
	e.Status = to
	e.UpdatedAt = at
	s.exchanges[id] = e
	out := e
	return &out, nil
}

// CompleteExchange moves accepted to completed and marks both books exchanged
// in one atomic unit, crediting both owners' books_shared
func (s *Store) CompleteExchange(_ context.Context, id string, at time.Time) (*models.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.exchanges[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if e.Status != models.ExchangeAccepted {
		return nil, apperr.ErrConflict
	}

	initBook, ok := s.books[e.InitiatorBookID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	respBook, ok := s.books[e.ResponderBookID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if initBook.Status != models.BookAvailable || respBook.Status != models.BookAvailable {
		return nil, apperr.ErrConflict
	}

	e.Status = models.ExchangeCompleted
	e.UpdatedAt = at
	s.exchanges[id] = e

	initBook.Status = models.BookExchanged
	initBook.UpdatedAt = at
	s.books[initBook.ID] = initBook

	respBook.Status = models.BookExchanged
	respBook.UpdatedAt = at
	s.books[respBook.ID] = respBook

	if u, ok := s.users[e.InitiatorID]; ok {
		u.BooksShared++
		s.users[u.ID] = u
	}
	if u, ok := s.users[e.ResponderID]; ok {
		u.BooksShared++
		s.users[u.ID] = u
	}

	out := e
	return &out, nil
}

// DeleteExchange removes an exchange; book status is left untouched
func (s *Store) DeleteExchange(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.exchanges[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(s.exchanges, id)
	return nil
}

// AddReview inserts a review and recomputes the book's aggregate from the
// full review set in the same atomic unit
func (s *Store) AddReview(_ context.Context, review *models.Review) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[review.BookID]
	if !ok {
		return nil, apperr.ErrNotFound
	}

	s.reviews[review.ID] = *review

	var ratings []int
	for _, r := range s.reviews {
		if r.BookID == review.BookID {
			ratings = append(ratings, r.Rating)
		}
	}
	b.Rating, b.ReviewsCount = models.AggregateRating(ratings)
	b.UpdatedAt = review.CreatedAt
	s.books[b.ID] = b

	out := b
	return &out, nil
}

// ListReviewsByBook retrieves a book's reviews, newest first
func (s *Store) ListReviewsByBook(_ context.Context, bookID string) ([]*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reviews []*models.Review
	for _, r := range s.reviews {
		if r.BookID == bookID {
			out := r
			reviews = append(reviews, &out)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
	return reviews, nil
}

func cloneUser(u *models.User) models.User {
	out := *u
	out.Wishlist = append([]string(nil), u.Wishlist...)
	return out
}

func applyPatch(b *models.Book, patch services.BookPatch) {
	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Author != nil {
		b.Author = *patch.Author
	}
	if patch.ISBN != nil {
		b.ISBN = *patch.ISBN
	}
	if patch.Cover != nil {
		b.Cover = *patch.Cover
	}
	if patch.Description != nil {
		b.Description = *patch.Description
	}
	if patch.Genre != nil {
		b.Genre = *patch.Genre
	}
	if patch.Condition != nil {
		b.Condition = *patch.Condition
	}
	if patch.Location != nil {
		b.Location = *patch.Location
	}
	if patch.Status != nil {
		b.Status = *patch.Status
	}
}
