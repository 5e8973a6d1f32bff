package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookflow-backend/internal/apperr"
	"bookflow-backend/internal/models"

	"github.com/google/uuid"
)

// ExchangeService owns the exchange state machine.
//
// Legal transitions: pending -> accepted | cancelled,
// accepted -> completed | cancelled. completed and cancelled are terminal.
type ExchangeService struct {
	exchanges ExchangeStore
	books     BookStore
}

// NewExchangeService creates a new exchange service
func NewExchangeService(exchanges ExchangeStore, books BookStore) *ExchangeService {
	return &ExchangeService{
		exchanges: exchanges,
		books:     books,
	}
}

// Propose constructs a new pending exchange. Both books must exist, be
// distinct, belong to the stated parties and be available. Book status is
// not changed here; that happens only at completion.
func (s *ExchangeService) Propose(ctx context.Context, initiatorID, responderID, initiatorBookID, responderBookID string) (*models.Exchange, error) {
	if initiatorBookID == responderBookID {
		return nil, fmt.Errorf("%w: cannot exchange a book for itself", apperr.ErrValidation)
	}
	if initiatorID == responderID {
		return nil, fmt.Errorf("%w: cannot exchange with yourself", apperr.ErrValidation)
	}

	initBook, err := s.books.GetBookByID(ctx, initiatorBookID)
	if err != nil {
		return nil, err
	}
	respBook, err := s.books.GetBookByID(ctx, responderBookID)
	if err != nil {
		return nil, err
	}

	if initBook.OwnerID != initiatorID {
		return nil, fmt.Errorf("%w: offered book does not belong to the initiator", apperr.ErrValidation)
	}
	if respBook.OwnerID != responderID {
		return nil, fmt.Errorf("%w: requested book does not belong to the responder", apperr.ErrValidation)
	}
	if initBook.Status != models.BookAvailable || respBook.Status != models.BookAvailable {
		return nil, fmt.Errorf("%w: both books must be available", apperr.ErrConflict)
	}

	now := time.Now()
	exchange := &models.Exchange{
		ID:              uuid.New().String(),
		InitiatorID:     initiatorID,
		ResponderID:     responderID,
		InitiatorBookID: initiatorBookID,
		ResponderBookID: responderBookID,
		Status:          models.ExchangePending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.exchanges.CreateExchange(ctx, exchange); err != nil {
		return nil, err
	}
	return exchange, nil
}

// Transition moves an exchange to the requested status. Only a party to the
// exchange may act. Illegal edges, including any move out of a terminal
// state, fail with apperr.ErrInvalidTransition and change nothing; when two
// callers race, the store's status CAS lets exactly one win.
func (s *ExchangeService) Transition(ctx context.Context, exchangeID, requested, actingUserID string) (*models.Exchange, error) {
	switch requested {
	case models.ExchangeAccepted, models.ExchangeCompleted, models.ExchangeCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrValidation, requested)
	}

	exchange, err := s.exchanges.GetExchangeByID(ctx, exchangeID)
	if err != nil {
		return nil, err
	}
	if !exchange.Involves(actingUserID) {
		return nil, apperr.ErrForbidden
	}
	if !legalTransition(exchange.Status, requested) {
		return nil, fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidTransition, exchange.Status, requested)
	}

	var updated *models.Exchange
	if requested == models.ExchangeCompleted {
		updated, err = s.exchanges.CompleteExchange(ctx, exchangeID, time.Now())
	} else {
		updated, err = s.exchanges.TransitionExchange(ctx, exchangeID, exchange.Status, requested, time.Now())
	}
	if err != nil {
		// A lost CAS race means someone else transitioned first.
		if errors.Is(err, apperr.ErrConflict) {
			return nil, fmt.Errorf("%w: exchange is no longer %s", apperr.ErrInvalidTransition, exchange.Status)
		}
		return nil, err
	}
	return updated, nil
}

// Remove hard-deletes an exchange. Book status is deliberately untouched
// regardless of the exchange's prior state.
func (s *ExchangeService) Remove(ctx context.Context, exchangeID string) error {
	return s.exchanges.DeleteExchange(ctx, exchangeID)
}

// Get retrieves an exchange by id
func (s *ExchangeService) Get(ctx context.Context, exchangeID string) (*models.Exchange, error) {
	return s.exchanges.GetExchangeByID(ctx, exchangeID)
}

// List retrieves exchanges matching the filter
func (s *ExchangeService) List(ctx context.Context, filter ExchangeFilter) ([]*models.Exchange, error) {
	return s.exchanges.ListExchanges(ctx, filter)
}

func legalTransition(from, to string) bool {
	switch from {
	case models.ExchangePending:
		return to == models.ExchangeAccepted || to == models.ExchangeCancelled
	case models.ExchangeAccepted:
		return to == models.ExchangeCompleted || to == models.ExchangeCancelled
	}
	return false
}
