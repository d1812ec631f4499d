package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/sainikcanteen/storefront/internal/analytics"
	"github.com/sainikcanteen/storefront/internal/auth"
	"github.com/sainikcanteen/storefront/internal/cart"
	"github.com/sainikcanteen/storefront/internal/order"
	"github.com/sainikcanteen/storefront/internal/product"
	"github.com/sainikcanteen/storefront/internal/user"
)

// All responses share one envelope: {"success":true, ...} on success and
// {"success":false,"error":...} on failure.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]interface{}{"success": false, "error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

type ValidationErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func respondValidationError(w http.ResponseWriter, err error) bool {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		log.Error().Err(err).Msg("Unexpected error type during validation")
		respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		return false
	}
	respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Success: false,
		Error:   "Validation failed",
		Details: formatValidationErrors(validationErrors),
	})
	return true
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = "failed on '" + fieldErr.Tag() + "' validation"
	}
	return details
}

// mapErrorToStatusCode translates domain sentinels into HTTP status codes.
// Anything unrecognized is a 500; its text never reaches the client.
func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrEmailExists),
		errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, product.ErrSKUExists),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrOutOfStock),
		errors.Is(err, order.ErrMissingShipping),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrBadTransition),
		errors.Is(err, analytics.ErrInvalidRange),
		errors.Is(err, analytics.ErrInvalidInterval):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage returns the sentinel's own text for known errors and a fixed
// fallback otherwise, so internal error details stay out of responses.
func clientMessage(err error, fallback string) string {
	for _, known := range []error{
		user.ErrNotFound, user.ErrEmailExists, user.ErrInvalidCredentials,
		product.ErrNotFound, product.ErrSKUExists,
		cart.ErrItemNotFound,
		order.ErrOrderNotFound, order.ErrEmptyCart, order.ErrOutOfStock,
		order.ErrMissingShipping, order.ErrInvalidStatus, order.ErrBadTransition,
		auth.ErrInvalidToken,
		analytics.ErrInvalidRange, analytics.ErrInvalidInterval,
	} {
		if errors.Is(err, known) {
			var oosErr *order.OutOfStockError
			if errors.As(err, &oosErr) {
				return oosErr.Error()
			}
			return known.Error()
		}
	}
	return fallback
}
