package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gcOssi/spark6/internal/auth"
	"github.com/gcOssi/spark6/internal/services"
)

// AuthHandler handles HTTP requests for registration and authentication.
type AuthHandler struct {
	service     services.UserServiceProvider
	jwtSecret   string
	tokenExpiry time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.UserServiceProvider, jwtSecret string, tokenExpiry time.Duration) *AuthHandler {
	return &AuthHandler{service: service, jwtSecret: jwtSecret, tokenExpiry: tokenExpiry}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests. Username accepts
// either the username or the email address.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles new user registration and issues a session token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.service.Register(payload.Username, payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields), errors.Is(err, services.ErrDuplicateUser):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			log.Error().Err(err).Str("username", payload.Username).Msg("Failed to register user")
			respondError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	token, err := auth.GenerateToken(user, h.jwtSecret, h.tokenExpiry)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to generate token")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	log.Info().Str("username", user.Username).Msg("User registered")
	respond(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	}, "user registered successfully")
}

// Login handles user authentication and token issuance.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.service.Authenticate(payload.Username, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingCredentials):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrInvalidCredentials):
			log.Warn().Str("identifier", payload.Username).Msg("Failed authentication attempt")
			respondError(w, http.StatusUnauthorized, err.Error())
		default:
			log.Error().Err(err).Str("identifier", payload.Username).Msg("Failed to authenticate user")
			respondError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	token, err := auth.GenerateToken(user, h.jwtSecret, h.tokenExpiry)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to generate token")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	}, "login successful")
}

// Me retrieves the currently authenticated user from the token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := h.service.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Error().Err(err).Int64("user_id", claims.UserID).Msg("Failed to load user from token")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{"user": user}, "user authenticated")
}
