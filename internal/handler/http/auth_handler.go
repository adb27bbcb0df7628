package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/sumisonnn/MEDICO/internal/auth"
	"github.com/sumisonnn/MEDICO/internal/user"
)

type AuthHandler struct {
	users    user.Service
	tokens   *auth.TokenManager
	validate *validator.Validate
}

func NewAuthHandler(users user.Service, tokens *auth.TokenManager, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, validate: validate}
}

func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Post("/auth/register", h.handleRegister)
	router.Post("/auth/login", h.handleLogin)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, r, err, "register user")
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	found, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, r, err, "authenticate user")
		return
	}

	h.respondWithToken(w, r, http.StatusOK, found)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, code int, u *user.User) {
	token, err := h.tokens.Issue(auth.Caller{UserID: u.ID, Role: u.Role})
	if err != nil {
		log.Error().Err(err).Int64("user_id", u.ID).Str("request_id", requestID(r)).Msg("Failed to issue token")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondWithJSON(w, code, AuthResponse{Token: token, User: toUserResponse(u)})
}
