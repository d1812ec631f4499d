package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sainikcanteen/storefront/internal/order"
	"github.com/sainikcanteen/storefront/internal/payment"
	"github.com/sainikcanteen/storefront/internal/user"
)

type PlaceOrderRequest struct {
	Name              string `json:"name" validate:"required"`
	Phone             string `json:"phone"`
	Address           string `json:"address" validate:"required"`
	City              string `json:"city" validate:"required"`
	State             string `json:"state"`
	Pincode           string `json:"pincode" validate:"required"`
	PaymentMethod     string `json:"payment_method"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
}

type CreateGatewayOrderRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type OrderHandler struct {
	orders     order.Service
	gateway    *payment.Gateway
	adminEmail string
	validate   *validator.Validate
}

func NewOrderHandler(orders order.Service, gateway *payment.Gateway, adminEmail string) *OrderHandler {
	return &OrderHandler{
		orders:     orders,
		gateway:    gateway,
		adminEmail: adminEmail,
		validate:   validator.New(),
	}
}

func (h *OrderHandler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var requestPayload PlaceOrderRequest
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

	input := order.PlacementInput{
		Shipping: order.Shipping{
			Name:    requestPayload.Name,
			Phone:   requestPayload.Phone,
			Address: requestPayload.Address,
			City:    requestPayload.City,
			State:   requestPayload.State,
			Pincode: requestPayload.Pincode,
		},
		PaymentMethod:     requestPayload.PaymentMethod,
		RazorpayOrderID:   requestPayload.RazorpayOrderID,
		RazorpayPaymentID: requestPayload.RazorpayPaymentID,
	}

	placed, err := h.orders.PlaceOrder(r.Context(), principal.ID, input)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusInternalServerError {
			log.Error().Err(err).Msg("Failed to place order")
			respondWithError(w, statusCode, "Failed to place order")
			return
		}
		respondWithError(w, statusCode, clientMessage(err, "Failed to place order"))
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "order": placed})
}

func (h *OrderHandler) handleListMine(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	orders, err := h.orders.GetByUser(r.Context(), principal.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch user orders")
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "orders": orders})
}

func (h *OrderHandler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	o, err := h.orders.GetByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Error().Err(err).Msg("Failed to fetch order")
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch order")
		return
	}

	if o.UserID != principal.ID && !h.isAdmin(principal) {
		respondWithError(w, http.StatusForbidden, "Not allowed to view this order")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "order": o})
}

func (h *OrderHandler) handleCreateGatewayOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateGatewayOrderRequest
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

	gatewayOrder, err := h.gateway.CreateOrder(requestPayload.Amount)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create payment gateway order")
		respondWithError(w, http.StatusInternalServerError, "Failed to create payment order")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"orderId":  gatewayOrder.OrderID,
		"amount":   gatewayOrder.Amount,
		"currency": gatewayOrder.Currency,
		"keyId":    gatewayOrder.KeyID,
	})
}

// handleVerifyPayment checks the widget's signature. It is advisory: order
// state is not mutated here.
func (h *OrderHandler) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var requestPayload VerifyPaymentRequest
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

	if !h.gateway.VerifySignature(requestPayload.OrderID, requestPayload.PaymentID, requestPayload.Signature) {
		respondWithError(w, http.StatusBadRequest, "Invalid payment signature")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Payment verified"})
}

// handleWebhook acknowledges gateway webhooks after verifying the payload
// signature. Order-status reconciliation from webhook events is a follow-up.
func (h *OrderHandler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read webhook payload")
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if !h.gateway.VerifyWebhook(payload, signature) {
		log.Warn().Msg("Rejected webhook with bad signature")
		respondWithError(w, http.StatusBadRequest, "Invalid webhook signature")
		return
	}

	log.Info().Int("payload_bytes", len(payload)).Msg("Payment webhook received")
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *OrderHandler) isAdmin(principal *user.User) bool {
	if principal.Role == user.RoleAdmin {
		return true
	}
	return h.adminEmail != "" && strings.EqualFold(principal.Email, h.adminEmail)
}
