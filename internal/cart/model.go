package cart

import (
	"time"

	"github.com/gofrs/uuid"
)

type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Line is a cart item joined with the product fields the storefront renders.
type Line struct {
	CartItem
	ProductName   string   `json:"product_name"`
	Price         float64  `json:"price"`
	DiscountPrice *float64 `json:"discount_price,omitempty"`
	Image         string   `json:"image,omitempty"`
	Stock         int      `json:"stock"`
}

// UnitPrice is the price one unit contributes to the cart total.
func (l *Line) UnitPrice() float64 {
	if l.DiscountPrice != nil {
		return *l.DiscountPrice
	}
	return l.Price
}

type Cart struct {
	Items []Line  `json:"items"`
	Total float64 `json:"total"`
}
