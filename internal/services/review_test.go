package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookflow-backend/internal/apperr"
	"bookflow-backend/internal/memstore"
	"bookflow-backend/internal/models"
	"bookflow-backend/internal/services"
)

func newReviewFixture(t *testing.T) (*memstore.Store, *services.ReviewService, *models.Book) {
	t.Helper()
	store := memstore.New()
	svc := services.NewReviewService(store)
	owner := seedUser(t, store, "owner@example.com")
	book := seedBook(t, store, owner.ID, models.BookAvailable)
	return store, svc, book
}

func TestRecordReviewAggregates(t *testing.T) {
	_, svc, book := newReviewFixture(t)
	ctx := context.Background()

	var updated *models.Book
	for _, rating := range []int{5, 3, 4} {
		var err error
		_, updated, err = svc.RecordReview(ctx, book.ID, "reader-1", rating, "nice read")
		require.NoError(t, err)
	}
	assert.Equal(t, 4.0, updated.Rating)
	assert.Equal(t, 3, updated.ReviewsCount)

	_, updated, err := svc.RecordReview(ctx, book.ID, "reader-2", 2, "")
	require.NoError(t, err)
	assert.Equal(t, 3.5, updated.Rating)
	assert.Equal(t, 4, updated.ReviewsCount)
}

func TestRecordReviewRoundsHalfUp(t *testing.T) {
	_, svc, book := newReviewFixture(t)
	ctx := context.Background()

	// 3 + 4 + 4 = 11, mean 3.666... -> 3.7
	var updated *models.Book
	for _, rating := range []int{3, 4, 4} {
		var err error
		_, updated, err = svc.RecordReview(ctx, book.ID, "reader-1", rating, "")
		require.NoError(t, err)
	}
	assert.Equal(t, 3.7, updated.Rating)

	// 3 + 4 + 4 + 2 = 13, mean 3.25 -> 3.3 (half rounds up)
	_, updated, err := svc.RecordReview(ctx, book.ID, "reader-2", 2, "")
	require.NoError(t, err)
	assert.Equal(t, 3.3, updated.Rating)
}

func TestRecordReviewRejectsOutOfRangeRating(t *testing.T) {
	store, svc, book := newReviewFixture(t)
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1, 100} {
		_, _, err := svc.RecordReview(ctx, book.ID, "reader-1", rating, "")
		assert.ErrorIs(t, err, apperr.ErrValidation, "rating %d", rating)
	}

	// No partial effect.
	unchanged, err := store.GetBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, unchanged.Rating)
	assert.Equal(t, 0, unchanged.ReviewsCount)
	reviews, err := svc.ListByBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestRecordReviewRejectsUnknownBook(t *testing.T) {
	_, svc, _ := newReviewFixture(t)

	_, _, err := svc.RecordReview(context.Background(), "no-such-book", "reader-1", 4, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	reviews, err := svc.ListByBook(context.Background(), "no-such-book")
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestListByBookReturnsOnlyThatBook(t *testing.T) {
	store, svc, book := newReviewFixture(t)
	ctx := context.Background()

	other := seedBook(t, store, "someone-else", models.BookAvailable)
	_, _, err := svc.RecordReview(ctx, book.ID, "reader-1", 5, "great")
	require.NoError(t, err)
	_, _, err = svc.RecordReview(ctx, other.ID, "reader-1", 1, "awful")
	require.NoError(t, err)

	reviews, err := svc.ListByBook(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)

	// The other book's aggregate is independent.
	otherBook, err := store.GetBookByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, otherBook.Rating)
	assert.Equal(t, 1, otherBook.ReviewsCount)
}
