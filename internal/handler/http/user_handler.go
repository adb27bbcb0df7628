package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sumisonnn/MEDICO/internal/user"
)

// UserHandler serves the admin user management routes.
type UserHandler struct {
	service  user.Service
	validate *validator.Validate
}

func NewUserHandler(service user.Service, validate *validator.Validate) *UserHandler {
	return &UserHandler{service: service, validate: validate}
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Get("/users", h.handleList)
	router.Get("/users/{id}", h.handleGet)
	router.Put("/users/{id}", h.handleUpdate)
	router.Delete("/users/{id}", h.handleDelete)
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err, "list users")
		return
	}

	response := make([]UserResponse, len(users))
	for i := range users {
		response[i] = toUserResponse(&users[i])
	}
	respondWithJSON(w, http.StatusOK, response)
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	found, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err, "get user")
		return
	}
	respondWithJSON(w, http.StatusOK, toUserResponse(found))
}

func (h *UserHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.UpdateUser(r.Context(), id, user.UpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "update user")
		return
	}
	respondWithJSON(w, http.StatusOK, toUserResponse(updated))
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), caller.UserID, id); err != nil {
		respondWithServiceError(w, r, err, "delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
