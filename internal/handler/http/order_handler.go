package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sumisonnn/MEDICO/internal/order"
)

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service, validate *validator.Validate) *OrderHandler {
	return &OrderHandler{service: service, validate: validate}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.handlePlaceOrder)
	router.Get("/orders", h.handleListOwn)
	router.Get("/orders/{id}", h.handleGet)
}

func (h *OrderHandler) RegisterAdminRoutes(router chi.Router) {
	router.Get("/orders", h.handleListAll)
	router.Patch("/orders/{id}/status", h.handleUpdateStatus)
}

func (h *OrderHandler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	placed, err := h.service.PlaceOrder(r.Context(), caller.UserID, order.Delivery{
		Address:       req.DeliveryAddress,
		Phone:         req.DeliveryPhone,
		Email:         req.DeliveryEmail,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "place order")
		return
	}
	respondWithJSON(w, http.StatusCreated, toOrderResponse(placed))
}

func (h *OrderHandler) handleListOwn(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListUserOrders(r.Context(), caller.UserID)
	if err != nil {
		respondWithServiceError(w, r, err, "list user orders")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *OrderHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	o, err := h.service.GetOrder(r.Context(), caller, id)
	if err != nil {
		respondWithServiceError(w, r, err, "get order")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) handleListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAllOrders(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err, "list all orders")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		respondWithServiceError(w, r, err, "update order status")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponse(updated))
}
