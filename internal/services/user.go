package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookflow-backend/internal/apperr"
	"bookflow-backend/internal/auth"
	"bookflow-backend/internal/models"
	"bookflow-backend/internal/session"

	"github.com/google/uuid"
)

const minPasswordLen = 6

// UserService handles signup, login and profile business logic
type UserService struct {
	users    UserStore
	books    BookStore
	sessions session.Store
}

// NewUserService creates a new user service
func NewUserService(users UserStore, books BookStore, sessions session.Store) *UserService {
	return &UserService{
		users:    users,
		books:    books,
		sessions: sessions,
	}
}

// SignupInput carries the fields accepted at signup
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Bio      string
	Location string
	Avatar   string
}

// Signup registers a new user and opens a session for it
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, *models.Session, error) {
	if len(in.Password) < minPasswordLen {
		return nil, nil, fmt.Errorf("%w: password must be at least %d characters", apperr.ErrValidation, minPasswordLen)
	}

	if _, err := s.users.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, nil, apperr.ErrEmailTaken
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	avatar := in.Avatar
	if avatar == "" {
		avatar = fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", in.Email)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Bio:          in.Bio,
		Location:     in.Location,
		Avatar:       avatar,
		Rating:       5,
		Wishlist:     []string{},
		MemberSince:  time.Now(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, nil, err
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}
	return user, sess, nil
}

// Login verifies credentials and opens a session. Whether the email or the
// password was wrong is never distinguishable from the returned error.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, *models.Session, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, nil, fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}
	return user, sess, nil
}

// Logout revokes the session token; revoking twice is fine
func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// GetUser retrieves a user's full profile
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// AddWishlist adds a book to the user's wishlist and returns the new set
func (s *UserService) AddWishlist(ctx context.Context, userID, bookID string) ([]string, error) {
	if _, err := s.books.GetBookByID(ctx, bookID); err != nil {
		return nil, err
	}
	return s.users.AddToWishlist(ctx, userID, bookID)
}

// RemoveWishlist removes a book from the user's wishlist and returns the new set
func (s *UserService) RemoveWishlist(ctx context.Context, userID, bookID string) ([]string, error) {
	return s.users.RemoveFromWishlist(ctx, userID, bookID)
}

// WishlistBooks resolves the user's wishlist ids into books. Ids of books
// deleted since being wished for are skipped.
func (s *UserService) WishlistBooks(ctx context.Context, userID string) ([]*models.Book, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.books.GetBooksByIDs(ctx, user.Wishlist)
}
