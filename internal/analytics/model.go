package analytics

import (
	"time"

	"github.com/gofrs/uuid"
)

// Stats is the simple dashboard card: lifetime counters.
type Stats struct {
	TotalOrders   int     `json:"total_orders"`
	TotalProducts int     `json:"total_products"`
	TotalUsers    int     `json:"total_users"`
	TotalRevenue  float64 `json:"total_revenue"`
}

type TopProduct struct {
	ProductID    uuid.UUID `json:"product_id"`
	Name         string    `json:"name"`
	Image        string    `json:"image,omitempty"`
	Price        float64   `json:"price"`
	QuantitySold int       `json:"quantity_sold"`
	Sales        float64   `json:"sales"`
}

// SeriesPoint is one chart bucket. Buckets with no orders are present with
// zero values so the chart axis stays contiguous.
type SeriesPoint struct {
	Label   string  `json:"label"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

type CategoryRevenue struct {
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
}

type Report struct {
	Range        string            `json:"range"`
	Interval     string            `json:"interval"`
	TotalOrders  int               `json:"total_orders"`
	NewCustomers int               `json:"new_customers"`
	Revenue      float64           `json:"revenue"`
	TopProducts  []TopProduct      `json:"top_products"`
	Series       []SeriesPoint     `json:"series"`
	Categories   []CategoryRevenue `json:"categories"`
}

// bucket is a raw aggregation row before gap filling.
type bucket struct {
	start   time.Time
	revenue float64
	orders  int
}
