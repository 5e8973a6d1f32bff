package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookflow-backend/internal/models"
)

type bookEnvelope struct {
	Book models.Book `json:"book"`
}

type exchangeEnvelope struct {
	Exchange models.Exchange `json:"exchange"`
}

func createBook(t *testing.T, router http.Handler, token, title string) models.Book {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/books", token, map[string]string{
		"title":     title,
		"author":    "Some Author",
		"condition": models.ConditionGood,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env bookEnvelope
	decodeBody(t, rec, &env)
	return env.Book
}

func getBook(t *testing.T, router http.Handler, id string) models.Book {
	t.Helper()

	rec := doJSON(t, router, http.MethodGet, "/api/v1/books/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env bookEnvelope
	decodeBody(t, rec, &env)
	return env.Book
}

func TestExchangeFlowOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	alice := signup(t, router, "alice@example.com")
	bob := signup(t, router, "bob@example.com")
	aliceBook := createBook(t, router, alice.Token, "Project Hail Mary")
	bobBook := createBook(t, router, bob.Token, "The Midnight Library")

	// Alice proposes a swap.
	rec := doJSON(t, router, http.MethodPost, "/api/v1/exchanges", alice.Token, map[string]string{
		"responder_id":      bob.User.ID,
		"initiator_book_id": aliceBook.ID,
		"responder_book_id": bobBook.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var proposed exchangeEnvelope
	decodeBody(t, rec, &proposed)
	assert.Equal(t, models.ExchangePending, proposed.Exchange.Status)
	assert.Equal(t, alice.User.ID, proposed.Exchange.InitiatorID)

	// Both books stay available while the proposal is pending.
	assert.Equal(t, models.BookAvailable, getBook(t, router, aliceBook.ID).Status)

	// Bob accepts, then completes.
	rec = doJSON(t, router, http.MethodPut, "/api/v1/exchanges/"+proposed.Exchange.ID, bob.Token,
		map[string]string{"status": models.ExchangeAccepted})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPut, "/api/v1/exchanges/"+proposed.Exchange.ID, bob.Token,
		map[string]string{"status": models.ExchangeCompleted})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var completed exchangeEnvelope
	decodeBody(t, rec, &completed)
	assert.Equal(t, models.ExchangeCompleted, completed.Exchange.Status)

	// Completion marks both books exchanged.
	assert.Equal(t, models.BookExchanged, getBook(t, router, aliceBook.ID).Status)
	assert.Equal(t, models.BookExchanged, getBook(t, router, bobBook.ID).Status)
}

func TestExchangeTransitionByOutsiderForbidden(t *testing.T) {
	router := newTestRouter(t)

	alice := signup(t, router, "alice@example.com")
	bob := signup(t, router, "bob@example.com")
	mallory := signup(t, router, "mallory@example.com")
	aliceBook := createBook(t, router, alice.Token, "Project Hail Mary")
	bobBook := createBook(t, router, bob.Token, "The Midnight Library")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/exchanges", alice.Token, map[string]string{
		"responder_id":      bob.User.ID,
		"initiator_book_id": aliceBook.ID,
		"responder_book_id": bobBook.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var proposed exchangeEnvelope
	decodeBody(t, rec, &proposed)

	rec = doJSON(t, router, http.MethodPut, "/api/v1/exchanges/"+proposed.Exchange.ID, mallory.Token,
		map[string]string{"status": models.ExchangeAccepted})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExchangeIllegalTransitionConflicts(t *testing.T) {
	router := newTestRouter(t)

	alice := signup(t, router, "alice@example.com")
	bob := signup(t, router, "bob@example.com")
	aliceBook := createBook(t, router, alice.Token, "Project Hail Mary")
	bobBook := createBook(t, router, bob.Token, "The Midnight Library")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/exchanges", alice.Token, map[string]string{
		"responder_id":      bob.User.ID,
		"initiator_book_id": aliceBook.ID,
		"responder_book_id": bobBook.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var proposed exchangeEnvelope
	decodeBody(t, rec, &proposed)

	// pending -> completed skips acceptance.
	rec = doJSON(t, router, http.MethodPut, "/api/v1/exchanges/"+proposed.Exchange.ID, bob.Token,
		map[string]string{"status": models.ExchangeCompleted})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Cancelling is terminal; nothing moves afterwards.
	rec = doJSON(t, router, http.MethodPut, "/api/v1/exchanges/"+proposed.Exchange.ID, alice.Token,
		map[string]string{"status": models.ExchangeCancelled})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPut, "/api/v1/exchanges/"+proposed.Exchange.ID, bob.Token,
		map[string]string{"status": models.ExchangeAccepted})
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, models.BookAvailable, getBook(t, router, aliceBook.ID).Status)
}

func TestProposeWithUnavailableBookConflicts(t *testing.T) {
	router := newTestRouter(t)

	alice := signup(t, router, "alice@example.com")
	bob := signup(t, router, "bob@example.com")
	aliceBook := createBook(t, router, alice.Token, "Project Hail Mary")
	bobBook := createBook(t, router, bob.Token, "The Midnight Library")

	// Bob marks his book borrowed.
	status := models.BookBorrowed
	rec := doJSON(t, router, http.MethodPut, "/api/v1/books/"+bobBook.ID, bob.Token,
		map[string]*string{"status": &status})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/v1/exchanges", alice.Token, map[string]string{
		"responder_id":      bob.User.ID,
		"initiator_book_id": aliceBook.ID,
		"responder_book_id": bobBook.ID,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListExchangesFiltersByUser(t *testing.T) {
	router := newTestRouter(t)

	alice := signup(t, router, "alice@example.com")
	bob := signup(t, router, "bob@example.com")
	carol := signup(t, router, "carol@example.com")
	aliceBook := createBook(t, router, alice.Token, "Project Hail Mary")
	bobBook := createBook(t, router, bob.Token, "The Midnight Library")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/exchanges", alice.Token, map[string]string{
		"responder_id":      bob.User.ID,
		"initiator_book_id": aliceBook.ID,
		"responder_book_id": bobBook.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var listBody struct {
		Exchanges []models.Exchange `json:"exchanges"`
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/exchanges?user_id="+bob.User.ID, bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &listBody)
	assert.Len(t, listBody.Exchanges, 1)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/exchanges?user_id="+carol.User.ID, carol.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &listBody)
	assert.Empty(t, listBody.Exchanges)
}
