package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/razorpay/razorpay-go"
	"github.com/rs/zerolog/log"
)

var ErrGatewayUnavailable = errors.New("payment gateway is not configured")

// GatewayOrder is the remote payment-provider order handed to the in-browser
// widget. It is distinct from the storefront's own Order entity.
type GatewayOrder struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

type Gateway struct {
	client        *razorpay.Client
	keyID         string
	keySecret     string
	webhookSecret string
}

func NewGateway(keyID, keySecret, webhookSecret string) *Gateway {
	g := &Gateway{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
	if keyID != "" && keySecret != "" {
		g.client = razorpay.NewClient(keyID, keySecret)
	}
	return g
}

// CreateOrder registers an order with Razorpay. The amount is converted to
// minor currency units (paise) as the gateway requires.
func (g *Gateway) CreateOrder(amount float64) (*GatewayOrder, error) {
	if g.client == nil {
		return nil, ErrGatewayUnavailable
	}

	receiptID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("payment: failed to generate receipt id: %w", err)
	}

	data := map[string]interface{}{
		"amount":   int64(amount * 100),
		"currency": "INR",
		"receipt":  "receipt_" + receiptID.String(),
	}

	remote, err := g.client.Order.Create(data, nil)
	if err != nil {
		log.Error().Err(err).Msg("payment: failed to create gateway order")
		return nil, fmt.Errorf("payment: failed to create gateway order: %w", err)
	}

	orderID, _ := remote["id"].(string)
	currency, _ := remote["currency"].(string)
	remoteAmount := int64(amount * 100)
	if v, ok := remote["amount"].(float64); ok {
		remoteAmount = int64(v)
	}

	return &GatewayOrder{
		OrderID:  orderID,
		Amount:   remoteAmount,
		Currency: currency,
		KeyID:    g.keyID,
	}, nil
}

// VerifySignature checks the signature the payment widget returns after a
// successful payment: HMAC-SHA256 over "<orderID>|<paymentID>" keyed with the
// API secret.
func (g *Gateway) VerifySignature(orderID, paymentID, signature string) bool {
	return verifyHMAC([]byte(orderID+"|"+paymentID), signature, g.keySecret)
}

// VerifyWebhook checks the X-Razorpay-Signature header against the raw
// webhook payload using the dedicated webhook secret.
func (g *Gateway) VerifyWebhook(payload []byte, signature string) bool {
	return verifyHMAC(payload, signature, g.webhookSecret)
}

func verifyHMAC(message []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
