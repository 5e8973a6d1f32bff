package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"bookflow-backend/internal/middleware"
	"bookflow-backend/internal/models"
	"bookflow-backend/internal/services"
)

// AuthHandler handles signup, login, logout and profile requests
type AuthHandler struct {
	userService  *services.UserService
	cookieTTL    time.Duration
	secureCookie bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *services.UserService, cookieTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		cookieTTL:    cookieTTL,
		secureCookie: secureCookie,
	}
}

// SignupRequest represents the request body for signing up
type SignupRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Bio             string `json:"bio"`
	Location        string `json:"location"`
	Avatar          string `json:"avatar"`
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	Success bool               `json:"success"`
	User    models.UserSummary `json:"user"`
	Token   string             `json:"token"`
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, "All fields are required; password must be at least 6 characters and match the confirmation", http.StatusBadRequest)
		return
	}

	user, sess, err := h.userService.Signup(r.Context(), services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Bio:      req.Bio,
		Location: req.Location,
		Avatar:   req.Avatar,
	})
	if err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("Signup failed")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User signed up")

	h.setSessionCookie(w, sess.Token)
	respondJSON(w, http.StatusCreated, AuthResponse{Success: true, User: user.Summary(), Token: sess.Token})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, sess, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Warn().Str("email", req.Email).Msg("Login failed")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User logged in")

	h.setSessionCookie(w, sess.Token)
	respondJSON(w, http.StatusOK, AuthResponse{Success: true, User: user.Summary(), Token: sess.Token})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetToken(r.Context())

	if err := h.userService.Logout(r.Context(), token); err != nil {
		log.Error().Err(err).Msg("Failed to revoke session")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
