package cart_test

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/sainikcanteen/storefront/internal/cart"
)

// These tests run the real repository against Postgres. Set TEST_DB_NAME
// (plus TEST_DB_HOST etc. when the defaults don't fit) to enable them; they
// are skipped otherwise.
var db *pgxpool.Pool

func TestMain(m *testing.M) {
	if os.Getenv("TEST_DB_NAME") == "" {
		os.Exit(m.Run())
	}

	host := getenv("TEST_DB_HOST", "localhost")
	port := getenv("TEST_DB_PORT", "5432")
	user := getenv("TEST_DB_USER", "postgres")
	password := getenv("TEST_DB_PASSWORD", "postgres")
	dbname := os.Getenv("TEST_DB_NAME")
	sslmode := getenv("TEST_DB_SSLMODE", "disable")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	var err error
	db, err = pgxpool.New(context.Background(), connStr)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		log.Fatalf("Failed to ping test database: %v", err)
	}

	dsn := fmt.Sprintf("pgx5://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(user), url.QueryEscape(password), host, port, dbname, sslmode)
	migrator, err := migrate.New("file://../../migrations", dsn)
	if err != nil {
		log.Fatalf("Failed to initialize test migrations: %v", err)
	}
	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Failed to apply test migrations: %v", err)
	}
	migrator.Close()

	exitCode := m.Run()

	db.Close()

	os.Exit(exitCode)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setup(t *testing.T) cart.Repository {
	if db == nil {
		t.Skip("TEST_DB_NAME not set, skipping repository tests")
	}

	truncateAll(t)
	t.Cleanup(func() { truncateAll(t) })

	return cart.NewRepository(db)
}

func truncateAll(t *testing.T) {
	t.Helper()
	_, err := db.Exec(context.Background(), "TRUNCATE TABLE cart_items, products, users CASCADE")
	require.NoError(t, err, "failed to truncate tables")
}

func seedUser(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	_, err := db.Exec(context.Background(),
		"INSERT INTO users (id, name, email, password_hash) VALUES ($1, $2, $3, $4)",
		id, "Test Soldier", id.String()+"@example.com", "hash",
	)
	require.NoError(t, err)
	return id
}

func seedProduct(t *testing.T, name string, price float64, discountPrice *float64, stock int) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	_, err := db.Exec(context.Background(),
		"INSERT INTO products (id, name, slug, sku, price, discount_price, stock) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		id, name, "slug-"+id.String(), "sku-"+id.String(), price, discountPrice, stock,
	)
	require.NoError(t, err)
	return id
}

func cartRowCount(t *testing.T) int {
	t.Helper()
	var n int
	err := db.QueryRow(context.Background(), "SELECT count(*) FROM cart_items").Scan(&n)
	require.NoError(t, err)
	return n
}

func TestPostgresRepository_Upsert_MergesDuplicateAdds(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	userID := seedUser(t)
	productID := seedProduct(t, "Ghee 1L", 500, nil, 10)

	first, err := repo.Upsert(ctx, userID, productID, 2)
	require.NoError(t, err)
	require.Equal(t, 2, first.Quantity)

	// Same (user, product) pair merges into the existing row.
	second, err := repo.Upsert(ctx, userID, productID, 3)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 5, second.Quantity)

	require.Equal(t, 1, cartRowCount(t))
}

func TestPostgresRepository_Upsert_SeparateRowsPerProduct(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	userID := seedUser(t)
	gheeID := seedProduct(t, "Ghee 1L", 500, nil, 10)
	riceID := seedProduct(t, "Rice 5kg", 300, nil, 10)

	_, err := repo.Upsert(ctx, userID, gheeID, 1)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, userID, riceID, 1)
	require.NoError(t, err)

	require.Equal(t, 2, cartRowCount(t))
}

func TestPostgresRepository_GetByUser_JoinsProducts(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	userID := seedUser(t)
	productID := seedProduct(t, "Ghee 1L", 500, discount(450), 7)

	_, err := repo.Upsert(ctx, userID, productID, 2)
	require.NoError(t, err)

	lines, err := repo.GetByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	line := lines[0]
	require.Equal(t, productID, line.ProductID)
	require.Equal(t, "Ghee 1L", line.ProductName)
	require.InDelta(t, 500, line.Price, 0.001)
	require.NotNil(t, line.DiscountPrice)
	require.InDelta(t, 450, *line.DiscountPrice, 0.001)
	require.Equal(t, 7, line.Stock)
	require.InDelta(t, 450, line.UnitPrice(), 0.001)
}

func TestPostgresRepository_UpdateQuantity_OwnershipScoped(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	owner := seedUser(t)
	stranger := seedUser(t)
	productID := seedProduct(t, "Ghee 1L", 500, nil, 10)

	item, err := repo.Upsert(ctx, owner, productID, 1)
	require.NoError(t, err)

	// Another user cannot touch the line.
	require.ErrorIs(t, repo.UpdateQuantity(ctx, stranger, item.ID, 4), cart.ErrItemNotFound)

	require.NoError(t, repo.UpdateQuantity(ctx, owner, item.ID, 4))

	lines, err := repo.GetByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, 4, lines[0].Quantity)
}

func TestPostgresRepository_DeleteAndClear(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	owner := seedUser(t)
	stranger := seedUser(t)
	gheeID := seedProduct(t, "Ghee 1L", 500, nil, 10)
	riceID := seedProduct(t, "Rice 5kg", 300, nil, 10)

	item, err := repo.Upsert(ctx, owner, gheeID, 1)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, owner, riceID, 1)
	require.NoError(t, err)

	require.ErrorIs(t, repo.Delete(ctx, stranger, item.ID), cart.ErrItemNotFound)
	require.NoError(t, repo.Delete(ctx, owner, item.ID))
	require.Equal(t, 1, cartRowCount(t))

	require.NoError(t, repo.Clear(ctx, owner))
	require.Equal(t, 0, cartRowCount(t))
}
