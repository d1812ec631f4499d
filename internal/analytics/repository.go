package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Stats(ctx context.Context) (*Stats, error)
	EarliestOrderDate(ctx context.Context) (time.Time, error)
	OrderTotals(ctx context.Context, since time.Time) (orders int, revenue float64, err error)
	NewCustomers(ctx context.Context, since time.Time) (int, error)
	TopProducts(ctx context.Context, since time.Time, limit int) ([]TopProduct, error)
	RevenueBuckets(ctx context.Context, since time.Time, interval string) ([]bucket, error)
	CategoryRevenue(ctx context.Context, since time.Time) ([]CategoryRevenue, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			(SELECT count(*) FROM orders),
			(SELECT count(*) FROM products),
			(SELECT count(*) FROM users),
			(SELECT coalesce(sum(total_amount), 0) FROM orders)
	`
	var s Stats
	err := r.db.QueryRow(ctx, query).Scan(&s.TotalOrders, &s.TotalProducts, &s.TotalUsers, &s.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to compute stats: %w", err)
	}
	return &s, nil
}

func (r *postgresRepository) EarliestOrderDate(ctx context.Context) (time.Time, error) {
	var earliest time.Time
	err := r.db.QueryRow(ctx, "SELECT coalesce(min(created_at), now()) FROM orders").Scan(&earliest)
	if err != nil {
		return time.Time{}, fmt.Errorf("repository: failed to select earliest order date: %w", err)
	}
	return earliest.UTC(), nil
}

func (r *postgresRepository) OrderTotals(ctx context.Context, since time.Time) (int, float64, error) {
	var orders int
	var revenue float64
	err := r.db.QueryRow(ctx,
		"SELECT count(*), coalesce(sum(total_amount), 0) FROM orders WHERE created_at >= $1",
		since,
	).Scan(&orders, &revenue)
	if err != nil {
		return 0, 0, fmt.Errorf("repository: failed to compute order totals: %w", err)
	}
	return orders, revenue, nil
}

func (r *postgresRepository) NewCustomers(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT count(*) FROM users WHERE role = 'customer' AND created_at >= $1",
		since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count new customers: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) TopProducts(ctx context.Context, since time.Time, limit int) ([]TopProduct, error) {
	query := `
		SELECT oi.product_id, p.name, p.image, p.price,
		       sum(oi.quantity)::int AS quantity_sold,
		       sum(oi.price * oi.quantity) AS sales
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.created_at >= $1
		GROUP BY oi.product_id, p.name, p.image, p.price
		ORDER BY quantity_sold DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query top products: %w", err)
	}
	defer rows.Close()

	top := make([]TopProduct, 0, limit)
	for rows.Next() {
		var tp TopProduct
		if err := rows.Scan(&tp.ProductID, &tp.Name, &tp.Image, &tp.Price, &tp.QuantitySold, &tp.Sales); err != nil {
			return nil, fmt.Errorf("repository: failed to scan top product: %w", err)
		}
		top = append(top, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating top products: %w", err)
	}
	return top, nil
}

func (r *postgresRepository) RevenueBuckets(ctx context.Context, since time.Time, interval string) ([]bucket, error) {
	query := `
		SELECT date_trunc($1, created_at AT TIME ZONE 'UTC') AS bucket_start,
		       coalesce(sum(total_amount), 0),
		       count(*)::int
		FROM orders
		WHERE created_at >= $2
		GROUP BY bucket_start
		ORDER BY bucket_start
	`
	rows, err := r.db.Query(ctx, query, interval, since)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query revenue buckets: %w", err)
	}
	defer rows.Close()

	buckets := make([]bucket, 0)
	for rows.Next() {
		var b bucket
		if err := rows.Scan(&b.start, &b.revenue, &b.orders); err != nil {
			return nil, fmt.Errorf("repository: failed to scan revenue bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating revenue buckets: %w", err)
	}
	return buckets, nil
}

func (r *postgresRepository) CategoryRevenue(ctx context.Context, since time.Time) ([]CategoryRevenue, error) {
	query := `
		SELECT p.category, sum(oi.price * oi.quantity) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.created_at >= $1
		GROUP BY p.category
		ORDER BY revenue DESC
	`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query category revenue: %w", err)
	}
	defer rows.Close()

	categories := make([]CategoryRevenue, 0)
	for rows.Next() {
		var c CategoryRevenue
		if err := rows.Scan(&c.Category, &c.Revenue); err != nil {
			return nil, fmt.Errorf("repository: failed to scan category revenue: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating category revenue: %w", err)
	}
	return categories, nil
}
