package repository

import (
	"context"
	"errors"
	"fmt"

	"bookflow-backend/internal/apperr"
	"bookflow-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReviewRepository handles database operations for reviews
type ReviewRepository struct {
	db *pgxpool.Pool
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// AddReview inserts the review and recomputes the book's rating and
// reviews_count from the complete review set, all in one transaction.
// The book row is locked first so concurrent reviews of the same book
// serialize and each recomputation sees the full set.
func (r *ReviewRepository) AddReview(ctx context.Context, review *models.Review) (*models.Book, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var bookID string
	err = tx.QueryRow(ctx, `SELECT id FROM books WHERE id = $1 FOR UPDATE`, review.BookID).Scan(&bookID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock book: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO reviews (id, book_id, user_id, rating, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		review.ID, review.BookID, review.UserID, review.Rating, review.Comment, review.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	rows, err := tx.Query(ctx, `SELECT rating FROM reviews WHERE book_id = $1`, review.BookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	var ratings []int
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ratings: %w", err)
	}

	rating, count := models.AggregateRating(ratings)
	book, err := scanBook(tx.QueryRow(ctx,
		`UPDATE books SET rating = $1, reviews_count = $2, updated_at = $3
		 WHERE id = $4
		 RETURNING `+bookColumns,
		rating, count, review.CreatedAt, review.BookID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update book rating: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return book, nil
}

// ListReviewsByBook retrieves a book's reviews, newest first
func (r *ReviewRepository) ListReviewsByBook(ctx context.Context, bookID string) ([]*models.Review, error) {
	query := `
		SELECT id, book_id, user_id, rating, comment, created_at
		FROM reviews
		WHERE book_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*models.Review{}
	for rows.Next() {
		var review models.Review
		err := rows.Scan(&review.ID, &review.BookID, &review.UserID,
			&review.Rating, &review.Comment, &review.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, &review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reviews: %w", err)
	}
	return reviews, nil
}
