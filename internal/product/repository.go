package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("product not found")
	ErrSKUExists = errors.New("product with this sku or slug already exists")
)

const uniqueViolation = "23505"

type Repository interface {
	List(ctx context.Context, params ListParams) ([]Product, int, error)
	GetByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const productColumns = "id, name, slug, sku, brand, category, description, price, discount_price, stock, image, is_active, is_featured, created_at, updated_at"

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.SKU,
		&p.Brand,
		&p.Category,
		&p.Description,
		&p.Price,
		&p.DiscountPrice,
		&p.Stock,
		&p.Image,
		&p.IsActive,
		&p.IsFeatured,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns the matching page of products and the total match count.
// Filters compose into one WHERE clause; the search term matches
// name/brand/description/sku case-insensitively, or the exact id when it
// parses as a UUID.
func (r *postgresRepository) List(ctx context.Context, params ListParams) ([]Product, int, error) {
	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	if !params.IncludeInactive {
		conditions = append(conditions, "is_active = TRUE")
	}
	if params.Search != "" {
		if id, err := uuid.FromString(params.Search); err == nil {
			args = append(args, id)
			conditions = append(conditions, fmt.Sprintf("id = $%d", len(args)))
		} else {
			args = append(args, "%"+params.Search+"%")
			n := len(args)
			conditions = append(conditions, fmt.Sprintf(
				"(name ILIKE $%d OR brand ILIKE $%d OR description ILIKE $%d OR sku ILIKE $%d)", n, n, n, n))
		}
	}
	if params.Category != "" && !strings.EqualFold(params.Category, "All") {
		args = append(args, params.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if params.Featured != nil {
		args = append(args, *params.Featured)
		conditions = append(conditions, fmt.Sprintf("is_featured = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT count(*) FROM products %s", where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count products: %w", err)
	}

	args = append(args, params.Limit, (params.Page-1)*params.Limit)
	listQuery := fmt.Sprintf(
		"SELECT %s FROM products %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		productColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository: error iterating products: %w", err)
	}

	return products, total, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products WHERE id = $1", productColumns)
	if !includeInactive {
		query += " AND is_active = TRUE"
	}
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %s: %w", id, err)
	}
	return p, nil
}

func (r *postgresRepository) Create(ctx context.Context, p *Product) error {
	if p.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate product ID: %w", err)
		}
		p.ID = id
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO products (id, name, slug, sku, brand, category, description, price, discount_price, stock, image, is_active, is_featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.Name, p.Slug, p.SKU, p.Brand, p.Category, p.Description,
		p.Price, p.DiscountPrice, p.Stock, p.Image, p.IsActive, p.IsFeatured,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSKUExists
		}
		return fmt.Errorf("repository: failed to insert product: %w", err)
	}
	return nil
}

func (r *postgresRepository) Update(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET name = $1, slug = $2, sku = $3, brand = $4, category = $5, description = $6,
		    price = $7, discount_price = $8, stock = $9, image = $10, is_active = $11,
		    is_featured = $12, updated_at = $13
		WHERE id = $14
	`
	cmdTag, err := r.db.Exec(ctx, query,
		p.Name, p.Slug, p.SKU, p.Brand, p.Category, p.Description,
		p.Price, p.DiscountPrice, p.Stock, p.Image, p.IsActive, p.IsFeatured,
		time.Now().UTC(), p.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSKUExists
		}
		return fmt.Errorf("repository: failed to update product %s: %w", p.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete product %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
