package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/sumisonnn/MEDICO/internal/apperr"
	"github.com/sumisonnn/MEDICO/internal/auth"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInsufficientStock),
		errors.Is(err, apperr.ErrEmptyCart),
		errors.Is(err, apperr.ErrInvalidStatus),
		errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError writes a taxonomy error with its own message.
// Anything else is logged and reported without detail.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	code := mapErrorToStatusCode(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", requestID(r)).
			Str("path", r.URL.Path).
			Msgf("Failed to %s", action)
		respondWithError(w, code, "internal server error")
		return
	}

	log.Warn().Err(err).Str("path", r.URL.Path).Msgf("Failed to %s", action)
	respondWithError(w, code, err.Error())
}

// decodeAndValidate reads a JSON body into dst and runs the struct tags.
// It writes the error response itself and reports whether to continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}
	return true
}

func formatValidationErrors(errs validator.ValidationErrors) []string {
	details := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			details = append(details, fmt.Sprintf("Field '%s' is required", fe.Field()))
		case "email":
			details = append(details, fmt.Sprintf("Field '%s' must be a valid email", fe.Field()))
		case "min":
			details = append(details, fmt.Sprintf("Field '%s' must be at least %s", fe.Field(), fe.Param()))
		case "max":
			details = append(details, fmt.Sprintf("Field '%s' must be at most %s", fe.Field(), fe.Param()))
		case "gt":
			details = append(details, fmt.Sprintf("Field '%s' must be greater than %s", fe.Field(), fe.Param()))
		case "oneof":
			details = append(details, fmt.Sprintf("Field '%s' must be one of [%s]", fe.Field(), fe.Param()))
		default:
			details = append(details, fmt.Sprintf("Field '%s' failed on '%s'", fe.Field(), fe.Tag()))
		}
	}
	return details
}

// newValidator reports json field names instead of Go field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		log.Warn().Str(name, raw).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s parameter", name))
		return 0, false
	}
	return id, true
}

// callerFrom returns the authenticated caller; routes using it sit behind
// auth.Middleware, so a missing caller is a wiring error.
func callerFrom(w http.ResponseWriter, r *http.Request) (auth.Caller, bool) {
	caller, ok := auth.CallerFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return auth.Caller{}, false
	}
	return caller, true
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
