package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)

const (
	MethodCOD      = "cod"
	MethodRazorpay = "razorpay"
)

// Shipping is the address snapshot captured at order time. Later profile
// edits do not touch it.
type Shipping struct {
	Name    string `json:"name" db:"shipping_name"`
	Phone   string `json:"phone,omitempty" db:"shipping_phone"`
	Address string `json:"address" db:"shipping_address"`
	City    string `json:"city" db:"shipping_city"`
	State   string `json:"state,omitempty" db:"shipping_state"`
	Pincode string `json:"pincode" db:"shipping_pincode"`
}

type OrderItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	// Price is the per-unit snapshot taken when the order was placed.
	Price     float64   `json:"price" db:"price"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Order struct {
	ID                uuid.UUID     `json:"id" db:"id"`
	UserID            uuid.UUID     `json:"user_id" db:"user_id"`
	Items             []OrderItem   `json:"items" db:"-"`
	TotalAmount       float64       `json:"total_amount" db:"total_amount"`
	Status            Status        `json:"status" db:"status"`
	PaymentMethod     string        `json:"payment_method" db:"payment_method"`
	PaymentStatus     PaymentStatus `json:"payment_status" db:"payment_status"`
	Shipping          Shipping      `json:"shipping"`
	RazorpayOrderID   *string       `json:"razorpay_order_id,omitempty" db:"razorpay_order_id"`
	RazorpayPaymentID *string       `json:"razorpay_payment_id,omitempty" db:"razorpay_payment_id"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}
