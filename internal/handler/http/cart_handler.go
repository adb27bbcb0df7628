package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sumisonnn/MEDICO/internal/cart"
)

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service, validate *validator.Validate) *CartHandler {
	return &CartHandler{service: service, validate: validate}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Get("/cart", h.handleGet)
	router.Delete("/cart", h.handleClear)
	router.Post("/cart/items", h.handleAdd)
	router.Put("/cart/items", h.handleUpdate)
	router.Delete("/cart/items/{medicineID}", h.handleRemove)
}

func (h *CartHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	h.respondWithCart(w, r, caller.UserID)
}

func (h *CartHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req CartItemRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil && *req.Quantity != 0 {
		quantity = *req.Quantity
	}

	if err := h.service.AddLine(r.Context(), caller.UserID, req.MedicineID, quantity); err != nil {
		respondWithServiceError(w, r, err, "add item to cart")
		return
	}
	h.respondWithCart(w, r, caller.UserID)
}

func (h *CartHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req CartItemRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	if req.Quantity == nil {
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed",
			Details: []string{"Field 'quantity' is required"},
		})
		return
	}

	if err := h.service.UpdateLineQuantity(r.Context(), caller.UserID, req.MedicineID, *req.Quantity); err != nil {
		respondWithServiceError(w, r, err, "update cart item")
		return
	}
	h.respondWithCart(w, r, caller.UserID)
}

func (h *CartHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	medicineID, ok := parseIDParam(w, r, "medicineID")
	if !ok {
		return
	}

	if err := h.service.RemoveLine(r.Context(), caller.UserID, medicineID); err != nil {
		respondWithServiceError(w, r, err, "remove cart item")
		return
	}
	h.respondWithCart(w, r, caller.UserID)
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), caller.UserID); err != nil {
		respondWithServiceError(w, r, err, "clear cart")
		return
	}
	h.respondWithCart(w, r, caller.UserID)
}

func (h *CartHandler) respondWithCart(w http.ResponseWriter, r *http.Request, userID int64) {
	view, err := h.service.GetCart(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, r, err, "get cart")
		return
	}
	respondWithJSON(w, http.StatusOK, toCartResponse(view))
}
