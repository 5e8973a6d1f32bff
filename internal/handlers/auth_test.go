package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookflow-backend/internal/handlers"
	"bookflow-backend/internal/memstore"
	"bookflow-backend/internal/middleware"
	"bookflow-backend/internal/services"
	"bookflow-backend/internal/session"
)

// newTestRouter wires the in-memory stores behind the real router, the
// same shape cmd.Run builds for production.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	store := memstore.New()
	sessions := session.NewMemoryStore(session.DefaultTTL)

	userService := services.NewUserService(store, store, sessions)
	bookService := services.NewBookService(store, store)
	exchangeService := services.NewExchangeService(store, store)
	reviewService := services.NewReviewService(store)
	hub := services.NewHub()

	authHandler := handlers.NewAuthHandler(userService, session.DefaultTTL, false)
	bookHandler := handlers.NewBookHandler(bookService, nil)
	exchangeHandler := handlers.NewExchangeHandler(exchangeService, hub)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	wishlistHandler := handlers.NewWishlistHandler(userService)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/books", bookHandler.List)
		r.Get("/books/{id}", bookHandler.Get)
		r.Get("/reviews", reviewHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessions))
			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/logout", authHandler.Logout)
			r.Post("/books", bookHandler.Create)
			r.Put("/books/{id}", bookHandler.Update)
			r.Delete("/books/{id}", bookHandler.Delete)
			r.Get("/exchanges", exchangeHandler.List)
			r.Post("/exchanges", exchangeHandler.Propose)
			r.Put("/exchanges/{id}", exchangeHandler.Transition)
			r.Delete("/exchanges/{id}", exchangeHandler.Remove)
			r.Post("/reviews", reviewHandler.Create)
			r.Get("/wishlist", wishlistHandler.List)
			r.Post("/wishlist", wishlistHandler.Update)
		})
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func signup(t *testing.T, router http.Handler, email string) handlers.AuthResponse {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name":            "Alice",
		"email":           email,
		"password":        "secret1",
		"confirmPassword": "secret1",
		"location":        "Springfield",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp handlers.AuthResponse
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp
}

func TestSignupSetsSessionCookie(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name":            "Alice",
		"email":           "alice@example.com",
		"password":        "secret1",
		"confirmPassword": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, middleware.CookieName, cookie.Name)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, int((24 * time.Hour).Seconds()), cookie.MaxAge)

	// The raw password never appears anywhere in the response.
	assert.NotContains(t, rec.Body.String(), "secret1")
}

func TestSignupValidation(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing email", map[string]string{
			"name": "Alice", "password": "secret1", "confirmPassword": "secret1",
		}},
		{"short password", map[string]string{
			"name": "Alice", "email": "a@example.com", "password": "tiny", "confirmPassword": "tiny",
		}},
		{"mismatched confirmation", map[string]string{
			"name": "Alice", "email": "a@example.com", "password": "secret1", "confirmPassword": "secret2",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSignupDuplicateEmailConflicts(t *testing.T) {
	router := newTestRouter(t)

	signup(t, router, "alice@example.com")
	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name":            "Other Alice",
		"email":           "alice@example.com",
		"password":        "secret1",
		"confirmPassword": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginAndMe(t *testing.T) {
	router := newTestRouter(t)
	created := signup(t, router, "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.AuthResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, created.User.ID, resp.User.ID)

	me := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, me.Code)

	var meBody struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeBody(t, me, &meBody)
	assert.Equal(t, created.User.ID, meBody.User.ID)
	assert.Equal(t, "alice@example.com", meBody.User.Email)
}

func TestMeAcceptsCookieAuth(t *testing.T) {
	router := newTestRouter(t)
	created := signup(t, router, "alice@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: created.Token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLoginWrongPasswordUnauthorized(t *testing.T) {
	router := newTestRouter(t)
	signup(t, router, "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/api/v1/auth/me", "/api/v1/exchanges", "/api/v1/wishlist"} {
		rec := doJSON(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	router := newTestRouter(t)
	created := signup(t, router, "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", created.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The cookie is cleared on logout.
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Less(t, cookies[0].MaxAge, 0)

	me := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", created.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, me.Code)
}
