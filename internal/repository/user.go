package repository

import (
	"context"
	"errors"
	"fmt"

	"bookflow-backend/internal/apperr"
	"bookflow-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser creates a new user; a duplicate email maps to apperr.ErrEmailTaken
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, bio, location, avatar,
		                   rating, reviews_count, books_shared, wishlist, member_since)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Bio, user.Location,
		user.Avatar, user.Rating, user.ReviewsCount, user.BooksShared, user.Wishlist,
		user.MemberSince,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getUser(ctx, `WHERE id = $1`, id)
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, `WHERE email = $1`, email)
}

func (r *UserRepository) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, bio, location, avatar,
		       rating, reviews_count, books_shared, wishlist, member_since
		FROM users ` + where
	var user models.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Bio,
		&user.Location, &user.Avatar, &user.Rating, &user.ReviewsCount,
		&user.BooksShared, &user.Wishlist, &user.MemberSince,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// AddToWishlist adds a book id to the user's wishlist set
func (r *UserRepository) AddToWishlist(ctx context.Context, userID, bookID string) ([]string, error) {
	query := `
		UPDATE users
		SET wishlist = array_append(wishlist, $1)
		WHERE id = $2 AND NOT ($1 = ANY(wishlist))
	`
	if _, err := r.db.Exec(ctx, query, bookID, userID); err != nil {
		return nil, fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return r.getWishlist(ctx, userID)
}

// RemoveFromWishlist removes a book id from the user's wishlist set
func (r *UserRepository) RemoveFromWishlist(ctx context.Context, userID, bookID string) ([]string, error) {
	query := `UPDATE users SET wishlist = array_remove(wishlist, $1) WHERE id = $2`
	if _, err := r.db.Exec(ctx, query, bookID, userID); err != nil {
		return nil, fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	return r.getWishlist(ctx, userID)
}

func (r *UserRepository) getWishlist(ctx context.Context, userID string) ([]string, error) {
	var wishlist []string
	err := r.db.QueryRow(ctx, `SELECT wishlist FROM users WHERE id = $1`, userID).Scan(&wishlist)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}
	return wishlist, nil
}
