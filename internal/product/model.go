package product

import (
	"time"

	"github.com/gofrs/uuid"
)

type Product struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Slug          string    `json:"slug" db:"slug"`
	SKU           string    `json:"sku" db:"sku"`
	Brand         string    `json:"brand,omitempty" db:"brand"`
	Category      string    `json:"category" db:"category"`
	Description   string    `json:"description,omitempty" db:"description"`
	Price         float64   `json:"price" db:"price"`
	DiscountPrice *float64  `json:"discount_price,omitempty" db:"discount_price"`
	Stock         int       `json:"stock" db:"stock"`
	Image         string    `json:"image,omitempty" db:"image"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	IsFeatured    bool      `json:"is_featured" db:"is_featured"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// EffectivePrice is what the customer actually pays: the discount price when
// one is set, the list price otherwise.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

type ListParams struct {
	Page            int
	Limit           int
	Search          string
	Category        string
	Featured        *bool
	IncludeInactive bool
}

type ListResult struct {
	Products   []Product `json:"products"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
	Total      int       `json:"total"`
	HasMore    bool      `json:"hasMore"`
}
