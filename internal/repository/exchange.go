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

const exchangeColumns = `id, initiator_id, responder_id, initiator_book_id,
       responder_book_id, status, created_at, updated_at`

// ExchangeRepository handles database operations for exchanges
type ExchangeRepository struct {
	db *pgxpool.Pool
}

// NewExchangeRepository creates a new exchange repository
func NewExchangeRepository(db *pgxpool.Pool) *ExchangeRepository {
	return &ExchangeRepository{db: db}
}

// CreateExchange creates a new exchange
func (r *ExchangeRepository) CreateExchange(ctx context.Context, exchange *models.Exchange) error {
	query := `
		INSERT INTO exchanges (` + exchangeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		exchange.ID, exchange.InitiatorID, exchange.ResponderID,
		exchange.InitiatorBookID, exchange.ResponderBookID, exchange.Status,
		exchange.CreatedAt, exchange.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create exchange: %w", err)
	}
	return nil
}

// GetExchangeByID retrieves an exchange by ID
func (r *ExchangeRepository) GetExchangeByID(ctx context.Context, id string) (*models.Exchange, error) {
	query := `SELECT ` + exchangeColumns + ` FROM exchanges WHERE id = $1`
	exchange, err := scanExchange(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get exchange: %w", err)
	}
	return exchange, nil
}

// ListExchanges retrieves exchanges matching the filter, newest first
func (r *ExchangeRepository) ListExchanges(ctx context.Context, filter services.ExchangeFilter) ([]*models.Exchange, error) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.UserID != "" {
		p := arg(filter.UserID)
		conds = append(conds, "(initiator_id = "+p+" OR responder_id = "+p+")")
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(filter.Status))
	}

	query := `SELECT ` + exchangeColumns + ` FROM exchanges`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	defer rows.Close()

	exchanges := []*models.Exchange{}
	for rows.Next() {
		exchange, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		exchanges = append(exchanges, exchange)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read exchanges: %w", err)
	}
	return exchanges, nil
}

// TransitionExchange compares-and-swaps the exchange status. The WHERE clause
// on the current status means that of two concurrent transitions exactly one
// updates a row; the other sees apperr.ErrConflict.
func (r *ExchangeRepository) TransitionExchange(ctx context.Context, id, from, to string, at time.Time) (*models.Exchange, error) {
	query := `
		UPDATE exchanges SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + exchangeColumns
	exchange, err := scanExchange(r.db.QueryRow(ctx, query, to, at, id, from))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.missingOrConflict(ctx, id)
		}
		return nil, fmt.Errorf("failed to transition exchange: %w", err)
	}
	return exchange, nil
}

// CompleteExchange commits the accepted-to-completed transition together with
// both book status flips and both owners' books_shared credit in a single
// transaction. Rows are locked in a fixed order so concurrent completions
// touching the same books cannot deadlock.
func (r *ExchangeRepository) CompleteExchange(ctx context.Context, id string, at time.Time) (*models.Exchange, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lockQuery := `SELECT ` + exchangeColumns + ` FROM exchanges WHERE id = $1 FOR UPDATE`
	exchange, err := scanExchange(tx.QueryRow(ctx, lockQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock exchange: %w", err)
	}
	if exchange.Status != models.ExchangeAccepted {
		return nil, apperr.ErrConflict
	}

	rows, err := tx.Query(ctx,
		`SELECT id, status FROM books WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		[]string{exchange.InitiatorBookID, exchange.ResponderBookID})
	if err != nil {
		return nil, fmt.Errorf("failed to lock books: %w", err)
	}
	locked := 0
	for rows.Next() {
		var bookID, status string
		if err := rows.Scan(&bookID, &status); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		if status != models.BookAvailable {
			rows.Close()
			return nil, apperr.ErrConflict
		}
		locked++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read books: %w", err)
	}
	if locked != 2 {
		return nil, apperr.ErrNotFound
	}

	_, err = tx.Exec(ctx,
		`UPDATE books SET status = $1, updated_at = $2 WHERE id = ANY($3)`,
		models.BookExchanged, at,
		[]string{exchange.InitiatorBookID, exchange.ResponderBookID})
	if err != nil {
		return nil, fmt.Errorf("failed to update books: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET books_shared = books_shared + 1 WHERE id = ANY($1)`,
		[]string{exchange.InitiatorID, exchange.ResponderID})
	if err != nil {
		return nil, fmt.Errorf("failed to update users: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE exchanges SET status = $1, updated_at = $2 WHERE id = $3`,
		models.ExchangeCompleted, at, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update exchange: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	exchange.Status = models.ExchangeCompleted
	exchange.UpdatedAt = at
	return exchange, nil
}

// DeleteExchange deletes an exchange by ID; book status is left untouched
func (r *ExchangeRepository) DeleteExchange(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM exchanges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete exchange: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// missingOrConflict distinguishes a vanished exchange from a lost CAS race
func (r *ExchangeRepository) missingOrConflict(ctx context.Context, id string) error {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM exchanges WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check exchange existence: %w", err)
	}
	if !exists {
		return apperr.ErrNotFound
	}
	return apperr.ErrConflict
}

func scanExchange(row rowScanner) (*models.Exchange, error) {
	var exchange models.Exchange
	err := row.Scan(
		&exchange.ID, &exchange.InitiatorID, &exchange.ResponderID,
		&exchange.InitiatorBookID, &exchange.ResponderBookID, &exchange.Status,
		&exchange.CreatedAt, &exchange.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &exchange, nil
}
