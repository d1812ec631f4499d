package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sainikcanteen/storefront/internal/analytics"
	"github.com/sainikcanteen/storefront/internal/order"
)

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type AdminHandler struct {
	orders    order.Service
	analytics analytics.Service
	validate  *validator.Validate
}

func NewAdminHandler(orders order.Service, analyticsService analytics.Service) *AdminHandler {
	return &AdminHandler{
		orders:    orders,
		analytics: analyticsService,
		validate:  validator.New(),
	}
}

func (h *AdminHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute dashboard stats")
		respondWithError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "stats": stats})
}

func (h *AdminHandler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	rangeStr := r.URL.Query().Get("range")
	interval := r.URL.Query().Get("interval")

	report, err := h.analytics.Report(r.Context(), rangeStr, interval)
	if err != nil {
		switch {
		case errors.Is(err, analytics.ErrInvalidRange):
			respondWithError(w, http.StatusBadRequest, "Invalid range: use 7d, 30d, 90d or all")
		case errors.Is(err, analytics.ErrInvalidInterval):
			respondWithError(w, http.StatusBadRequest, "Invalid interval: use day, week, month or year")
		default:
			log.Error().Err(err).Msg("Failed to build analytics report")
			respondWithError(w, http.StatusInternalServerError, "Failed to build analytics report")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "report": report})
}

func (h *AdminHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	orders, total, err := h.orders.ListAll(r.Context(), page, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders")
		respondWithError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"orders":  orders,
		"total":   total,
	})
}

func (h *AdminHandler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var requestPayload UpdateOrderStatusRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(requestPayload); err != nil {
		respondValidationError(w, err)
		return
	}

	err = h.orders.UpdateStatus(r.Context(), orderID, order.Status(requestPayload.Status))
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			respondWithError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, order.ErrInvalidStatus), errors.Is(err, order.ErrBadTransition):
			respondWithError(w, http.StatusBadRequest, clientMessage(err, "Invalid status update"))
		default:
			log.Error().Err(err).Msg("Failed to update order status")
			respondWithError(w, http.StatusInternalServerError, "Failed to update order status")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Order status updated"})
}
