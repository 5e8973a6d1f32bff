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

func newBookFixture(t *testing.T) (*memstore.Store, *services.BookService) {
	t.Helper()
	store := memstore.New()
	return store, services.NewBookService(store, store)
}

func TestCreateBookDefaults(t *testing.T) {
	_, svc := newBookFixture(t)

	book, err := svc.Create(context.Background(), "owner-1", services.BookInput{
		Title:     "The Midnight Library",
		Author:    "Matt Haig",
		Condition: models.ConditionLikeNew,
		Genre:     "Fiction",
	})
	require.NoError(t, err)

	assert.Equal(t, models.BookAvailable, book.Status)
	assert.Equal(t, "owner-1", book.OwnerID)
	assert.Equal(t, 0.0, book.Rating)
	assert.Equal(t, 0, book.ReviewsCount)
}

func TestCreateBookRejectsBadCondition(t *testing.T) {
	_, svc := newBookFixture(t)

	_, err := svc.Create(context.Background(), "owner-1", services.BookInput{
		Title:     "A Book",
		Author:    "Someone",
		Condition: "mint",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateBookOwnerOnly(t *testing.T) {
	_, svc := newBookFixture(t)
	ctx := context.Background()

	book, err := svc.Create(ctx, "owner-1", services.BookInput{
		Title: "A Book", Author: "Someone", Condition: models.ConditionGood,
	})
	require.NoError(t, err)

	title := "A Better Title"
	_, err = svc.Update(ctx, book.ID, "intruder", services.BookPatch{Title: &title})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	updated, err := svc.Update(ctx, book.ID, "owner-1", services.BookPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "A Better Title", updated.Title)
	// Untouched fields survive a partial patch.
	assert.Equal(t, "Someone", updated.Author)
	assert.Equal(t, models.ConditionGood, updated.Condition)
}

func TestDeleteBookOwnerOnly(t *testing.T) {
	store, svc := newBookFixture(t)
	ctx := context.Background()

	book, err := svc.Create(ctx, "owner-1", services.BookInput{
		Title: "A Book", Author: "Someone", Condition: models.ConditionFair,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, book.ID, "intruder"), apperr.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, book.ID, "owner-1"))

	_, err = store.GetBookByID(ctx, book.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListBooksFilters(t *testing.T) {
	_, svc := newBookFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "owner-1", services.BookInput{
		Title: "Project Hail Mary", Author: "Andy Weir",
		Genre: "Science Fiction", Condition: models.ConditionGood,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "owner-2", services.BookInput{
		Title: "The Midnight Library", Author: "Matt Haig",
		Genre: "Fiction", Condition: models.ConditionLikeNew,
	})
	require.NoError(t, err)

	byGenre, err := svc.List(ctx, services.BookFilter{Genre: "Science Fiction"})
	require.NoError(t, err)
	require.Len(t, byGenre, 1)
	assert.Equal(t, "Project Hail Mary", byGenre[0].Title)

	all, err := svc.List(ctx, services.BookFilter{Genre: "all"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Search is case-insensitive across title and author.
	bySearch, err := svc.List(ctx, services.BookFilter{Search: "haig"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "The Midnight Library", bySearch[0].Title)

	byOwner, err := svc.List(ctx, services.BookFilter{OwnerID: "owner-1"})
	require.NoError(t, err)
	assert.Len(t, byOwner, 1)
}

func TestGetBookWithReviews(t *testing.T) {
	store, svc := newBookFixture(t)
	ctx := context.Background()

	book, err := svc.Create(ctx, "owner-1", services.BookInput{
		Title: "A Book", Author: "Someone", Condition: models.ConditionGood,
	})
	require.NoError(t, err)

	reviewSvc := services.NewReviewService(store)
	_, _, err = reviewSvc.RecordReview(ctx, book.ID, "reader-1", 4, "solid")
	require.NoError(t, err)

	got, reviews, err := svc.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Rating)
	require.Len(t, reviews, 1)
	assert.Equal(t, "solid", reviews[0].Comment)
}
