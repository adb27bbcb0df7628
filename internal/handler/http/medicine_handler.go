package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/sumisonnn/MEDICO/internal/catalog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type MedicineHandler struct {
	service  catalog.Service
	validate *validator.Validate
}

func NewMedicineHandler(service catalog.Service, validate *validator.Validate) *MedicineHandler {
	return &MedicineHandler{service: service, validate: validate}
}

func (h *MedicineHandler) RegisterRoutes(router chi.Router) {
	router.Get("/medicines", h.handleList)
	router.Get("/medicines/search", h.handleSearch)
	router.Get("/medicines/category/{category}", h.handleListByCategory)
	router.Get("/medicines/{id}", h.handleGet)
}

func (h *MedicineHandler) RegisterAdminRoutes(router chi.Router) {
	router.Post("/medicines", h.handleCreate)
	router.Get("/medicines/export", h.handleExport)
	router.Put("/medicines/{id}", h.handleUpdate)
	router.Delete("/medicines/{id}", h.handleDelete)
}

func (h *MedicineHandler) handleList(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.service.ListMedicines(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err, "list medicines")
		return
	}
	respondWithJSON(w, http.StatusOK, toMedicineResponses(medicines))
}

func (h *MedicineHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.service.SearchMedicines(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondWithServiceError(w, r, err, "search medicines")
		return
	}
	respondWithJSON(w, http.StatusOK, toMedicineResponses(medicines))
}

func (h *MedicineHandler) handleListByCategory(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.service.ListByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		respondWithServiceError(w, r, err, "list medicines by category")
		return
	}
	respondWithJSON(w, http.StatusOK, toMedicineResponses(medicines))
}

func (h *MedicineHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	m, err := h.service.GetMedicine(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err, "get medicine")
		return
	}
	respondWithJSON(w, http.StatusOK, toMedicineResponse(m))
}

func (h *MedicineHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateMedicineRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	if !checkPrice(w, req.Price) {
		return
	}

	created, err := h.service.CreateMedicine(r.Context(), catalog.CreateInput{
		Name:     req.Name,
		Category: req.Category,
		Price:    *req.Price,
		Stock:    *req.Stock,
		Image:    req.Image,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "create medicine")
		return
	}
	respondWithJSON(w, http.StatusCreated, toMedicineResponse(created))
}

func (h *MedicineHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateMedicineRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	if !checkPrice(w, req.Price) {
		return
	}

	updated, err := h.service.UpdateMedicine(r.Context(), id, catalog.UpdateInput{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Stock:    req.Stock,
		Image:    req.Image,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "update medicine")
		return
	}
	respondWithJSON(w, http.StatusOK, toMedicineResponse(updated))
}

func (h *MedicineHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteMedicine(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err, "delete medicine")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport renders the workbook into memory first so that a failure
// can still be reported as JSON.
func (h *MedicineHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportXLSX(r.Context(), &buf); err != nil {
		respondWithServiceError(w, r, err, "export medicines")
		return
	}

	filename := fmt.Sprintf("medicines-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error().Err(err).Str("request_id", requestID(r)).Msg("Failed to write export")
	}
}

func checkPrice(w http.ResponseWriter, price *decimal.Decimal) bool {
	if price == nil {
		return true
	}
	if _, err := catalog.ParsePrice(price.String()); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
