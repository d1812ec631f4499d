package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrOutOfStock    = errors.New("out of stock")
)

// OutOfStockError names the product that sank the whole placement.
type OutOfStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %q is out of stock: requested %d, available %d", e.ProductName, e.Requested, e.Available)
}

func (e *OutOfStockError) Is(target error) bool {
	return target == ErrOutOfStock
}

type Repository interface {
	PlaceOrder(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListAll(ctx context.Context, page, limit int) ([]Order, int, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

type cartSnapshot struct {
	productID     uuid.UUID
	productName   string
	price         float64
	discountPrice *float64
	stock         int
	quantity      int
}

func (c *cartSnapshot) unitPrice() float64 {
	if c.discountPrice != nil {
		return *c.discountPrice
	}
	return c.price
}

// PlaceOrder turns the user's cart into an order inside one transaction:
// lock cart lines with their products, verify stock, insert order and items
// at snapshot prices, decrement stock, flush the cart. Any failure rolls the
// whole thing back.
func (r *postgresRepository) PlaceOrder(ctx context.Context, o *Order) (err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback after panic in PlaceOrder")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback PlaceOrder transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Stringer("order_id", o.ID).Msg("repository: failed to commit PlaceOrder transaction")
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	// 1. Read the cart with current product state, locking the product rows
	// so concurrent checkouts serialize on stock.
	snapshotQuery := `
		SELECT ci.product_id, p.name, p.price, p.discount_price, p.stock, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at
		FOR UPDATE OF p
	`
	rows, err := tx.Query(ctx, snapshotQuery, o.UserID)
	if err != nil {
		return fmt.Errorf("repository: failed to read cart snapshot: %w", err)
	}

	var snapshots []cartSnapshot
	for rows.Next() {
		var s cartSnapshot
		if err = rows.Scan(&s.productID, &s.productName, &s.price, &s.discountPrice, &s.stock, &s.quantity); err != nil {
			rows.Close()
			return fmt.Errorf("repository: failed to scan cart snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating cart snapshot: %w", err)
	}

	if len(snapshots) == 0 {
		err = ErrEmptyCart
		return err
	}

	// 2. Every line must be coverable by current stock or nothing happens.
	for _, s := range snapshots {
		if s.stock < s.quantity {
			err = &OutOfStockError{ProductName: s.productName, Requested: s.quantity, Available: s.stock}
			return err
		}
	}

	// 3. Total from the locked snapshot, not from whatever the client claims.
	total := 0.0
	for _, s := range snapshots {
		total += s.unitPrice() * float64(s.quantity)
	}
	o.TotalAmount = total

	if o.ID == uuid.Nil {
		var genID uuid.UUID
		genID, err = uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate order ID: %w", err)
		}
		o.ID = genID
	}

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	// 4-5. Insert the order and its items at snapshot prices.
	insertOrder := `
		INSERT INTO orders (id, user_id, total_amount, status, payment_method, payment_status,
		                    shipping_name, shipping_phone, shipping_address, shipping_city,
		                    shipping_state, shipping_pincode, razorpay_order_id, razorpay_payment_id,
		                    created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = tx.Exec(ctx, insertOrder,
		o.ID, o.UserID, o.TotalAmount, string(o.Status), o.PaymentMethod, string(o.PaymentStatus),
		o.Shipping.Name, o.Shipping.Phone, o.Shipping.Address, o.Shipping.City,
		o.Shipping.State, o.Shipping.Pincode, o.RazorpayOrderID, o.RazorpayPaymentID,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	o.Items = make([]OrderItem, 0, len(snapshots))
	for _, s := range snapshots {
		var itemID uuid.UUID
		itemID, err = uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate order item ID: %w", err)
		}

		item := OrderItem{
			ID:        itemID,
			OrderID:   o.ID,
			ProductID: s.productID,
			Quantity:  s.quantity,
			Price:     s.unitPrice(),
			CreatedAt: now,
		}

		insertItem := `
			INSERT INTO order_items (id, order_id, product_id, quantity, price, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err = tx.Exec(ctx, insertItem, item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price, item.CreatedAt)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %s: %w", o.ID, err)
		}

		// 6. Decrement stock under the lock taken in step 1.
		_, err = tx.Exec(ctx, "UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3", s.quantity, now, s.productID)
		if err != nil {
			return fmt.Errorf("repository: failed to decrement stock for product %s: %w", s.productID, err)
		}

		o.Items = append(o.Items, item)
	}

	// 7. Flush the cart.
	if _, err = tx.Exec(ctx, "DELETE FROM cart_items WHERE user_id = $1", o.UserID); err != nil {
		return fmt.Errorf("repository: failed to clear cart for user %s: %w", o.UserID, err)
	}

	return nil
}

const orderColumns = `id, user_id, total_amount, status, payment_method, payment_status,
	shipping_name, shipping_phone, shipping_address, shipping_city, shipping_state, shipping_pincode,
	razorpay_order_id, razorpay_payment_id, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.TotalAmount,
		&o.Status,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.Shipping.Name,
		&o.Shipping.Phone,
		&o.Shipping.Address,
		&o.Shipping.City,
		&o.Shipping.State,
		&o.Shipping.Pincode,
		&o.RazorpayOrderID,
		&o.RazorpayPaymentID,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE id = $1", orderColumns)
	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	items, err := r.itemsForOrders(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	if o.Items == nil {
		o.Items = make([]OrderItem, 0)
	}
	return o, nil
}

func (r *postgresRepository) GetByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE user_id = $1 ORDER BY created_at DESC", orderColumns)
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for user %s: %w", userID, err)
	}
	defer rows.Close()

	orders, orderIDs, err := collectOrders(rows)
	if err != nil {
		return nil, fmt.Errorf("repository: failed reading orders for user %s: %w", userID, err)
	}
	if len(orders) == 0 {
		return []Order{}, nil
	}

	items, err := r.itemsForOrders(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	attachItems(orders, items)
	return orders, nil
}

func (r *postgresRepository) ListAll(ctx context.Context, page, limit int) ([]Order, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM orders").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count orders: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2", orderColumns)
	rows, err := r.db.Query(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to query all orders: %w", err)
	}
	defer rows.Close()

	orders, orderIDs, err := collectOrders(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed reading all orders: %w", err)
	}
	if len(orders) == 0 {
		return []Order{}, total, nil
	}

	items, err := r.itemsForOrders(ctx, orderIDs)
	if err != nil {
		return nil, 0, err
	}
	attachItems(orders, items)
	return orders, total, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error {
	cmdTag, err := r.db.Exec(ctx,
		"UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3",
		string(newStatus), time.Now().UTC(), orderID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func collectOrders(rows pgx.Rows) ([]Order, []uuid.UUID, error) {
	orders := make([]Order, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, nil, err
		}
		o.Items = make([]OrderItem, 0)
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return orders, ids, nil
}

func (r *postgresRepository) itemsForOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, price, created_at
		FROM order_items
		WHERE order_id = ANY($1)
	`
	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]OrderItem)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}
	return items, nil
}

func attachItems(orders []Order, items map[uuid.UUID][]OrderItem) {
	for i := range orders {
		if list, ok := items[orders[i].ID]; ok {
			orders[i].Items = list
		}
	}
}
