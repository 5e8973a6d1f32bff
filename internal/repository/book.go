package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookflow-backend/internal/apperr"
	"bookflow-backend/internal/models"
	"bookflow-backend/internal/services"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookColumns = `id, title, author, isbn, cover, description, genre, condition,
       owner_id, location, status, rating, reviews_count, created_at, updated_at`

// BookRepository handles database operations for books
type BookRepository struct {
	db *pgxpool.Pool
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *pgxpool.Pool) *BookRepository {
	return &BookRepository{db: db}
}

// CreateBook creates a new book
func (r *BookRepository) CreateBook(ctx context.Context, book *models.Book) error {
	query := `
		INSERT INTO books (` + bookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.Exec(ctx, query,
		book.ID, book.Title, book.Author, book.ISBN, book.Cover, book.Description,
		book.Genre, book.Condition, book.OwnerID, book.Location, book.Status,
		book.Rating, book.ReviewsCount, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// GetBookByID retrieves a book by ID
func (r *BookRepository) GetBookByID(ctx context.Context, id string) (*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	book, err := scanBook(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return book, nil
}

// GetBooksByIDs retrieves the books whose ids are present; missing ids are skipped
func (r *BookRepository) GetBooksByIDs(ctx context.Context, ids []string) ([]*models.Book, error) {
	if len(ids) == 0 {
		return []*models.Book{}, nil
	}
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ANY($1) ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get books: %w", err)
	}
	defer rows.Close()
	return collectBooks(rows)
}

// ListBooks retrieves books matching the filter, newest first
func (r *BookRepository) ListBooks(ctx context.Context, filter services.BookFilter) ([]*models.Book, error) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Genre != "" && filter.Genre != "all" {
		conds = append(conds, "genre = "+arg(filter.Genre))
	}
	if filter.OwnerID != "" {
		conds = append(conds, "owner_id = "+arg(filter.OwnerID))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(filter.Status))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, "(title ILIKE "+p+" OR author ILIKE "+p+" OR description ILIKE "+p+")")
	}

	query := `SELECT ` + bookColumns + ` FROM books`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()
	return collectBooks(rows)
}

// UpdateBook applies a partial patch to a book
func (r *BookRepository) UpdateBook(ctx context.Context, id string, patch services.BookPatch, at time.Time) (*models.Book, error) {
	sets := []string{}
	args := []any{}

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	set := func(column string, v *string) {
		if v != nil {
			sets = append(sets, column+" = "+arg(*v))
		}
	}

	set("title", patch.Title)
	set("author", patch.Author)
	set("isbn", patch.ISBN)
	set("cover", patch.Cover)
	set("description", patch.Description)
	set("genre", patch.Genre)
	set("condition", patch.Condition)
	set("location", patch.Location)
	set("status", patch.Status)
	sets = append(sets, "updated_at = "+arg(at))

	query := `UPDATE books SET ` + strings.Join(sets, ", ") +
		` WHERE id = ` + arg(id) + ` RETURNING ` + bookColumns

	book, err := scanBook(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	return book, nil
}

// DeleteBook deletes a book by ID
func (r *BookRepository) DeleteBook(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*models.Book, error) {
	var book models.Book
	err := row.Scan(
		&book.ID, &book.Title, &book.Author, &book.ISBN, &book.Cover,
		&book.Description, &book.Genre, &book.Condition, &book.OwnerID,
		&book.Location, &book.Status, &book.Rating, &book.ReviewsCount,
		&book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func collectBooks(rows pgx.Rows) ([]*models.Book, error) {
	books := []*models.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read books: %w", err)
	}
	return books, nil
}
