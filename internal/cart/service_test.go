package cart_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sainikcanteen/storefront/internal/cart"
	"github.com/sainikcanteen/storefront/internal/product"
)

type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) GetByUser(ctx context.Context, userID uuid.UUID) ([]cart.Line, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.Line), args.Error(1)
}

func (m *MockCartRepository) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.CartItem, error) {
	args := m.Called(ctx, userID, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.CartItem), args.Error(1)
}

func (m *MockCartRepository) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	args := m.Called(ctx, userID, itemID, quantity)
	return args.Error(0)
}

func (m *MockCartRepository) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	args := m.Called(ctx, userID, itemID)
	return args.Error(0)
}

func (m *MockCartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, params product.ListParams) ([]product.Product, int, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]product.Product), args.Int(1), args.Error(2)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*product.Product, error) {
	args := m.Called(ctx, id, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p *product.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, p *product.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func discount(v float64) *float64 { return &v }

func TestCartService_Get_ComputesTotalWithDiscounts(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockProducts := new(MockProductRepository)
	cartService := cart.NewService(mockRepo, mockProducts)

	userID := uuid.Must(uuid.NewV4())
	lines := []cart.Line{
		{
			CartItem:    cart.CartItem{Quantity: 2},
			ProductName: "Ghee 1L",
			Price:       500,
			// Discounted unit wins over list price.
			DiscountPrice: discount(450),
		},
		{
			CartItem:    cart.CartItem{Quantity: 3},
			ProductName: "Rice 5kg",
			Price:       300,
		},
	}

	mockRepo.On("GetByUser", mock.Anything, userID).
		Return(lines, nil).
		Once()

	got, err := cartService.Get(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	require.InDelta(t, 2*450+3*300, got.Total, 0.001)
	mockRepo.AssertExpectations(t)
}

func TestCartService_Get_EmptyCart(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockProducts := new(MockProductRepository)
	cartService := cart.NewService(mockRepo, mockProducts)

	userID := uuid.Must(uuid.NewV4())

	mockRepo.On("GetByUser", mock.Anything, userID).
		Return([]cart.Line{}, nil).
		Once()

	got, err := cartService.Get(context.Background(), userID)
	require.NoError(t, err)
	require.Empty(t, got.Items)
	require.Zero(t, got.Total)
	mockRepo.AssertExpectations(t)
}

func TestCartService_Add_ValidatesProduct(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockProducts := new(MockProductRepository)
	cartService := cart.NewService(mockRepo, mockProducts)

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	mockProducts.On("GetByID", mock.Anything, productID, false).
		Return(nil, product.ErrNotFound).
		Once()

	item, err := cartService.Add(context.Background(), userID, productID, 1)
	require.Error(t, err)
	require.ErrorIs(t, err, product.ErrNotFound)
	require.Nil(t, item)
	mockRepo.AssertNotCalled(t, "Upsert")
	mockProducts.AssertExpectations(t)
}

func TestCartService_Add_DefaultsQuantityToOne(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockProducts := new(MockProductRepository)
	cartService := cart.NewService(mockRepo, mockProducts)

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	mockProducts.On("GetByID", mock.Anything, productID, false).
		Return(&product.Product{ID: productID, Name: "Ghee 1L", IsActive: true}, nil).
		Once()
	mockRepo.On("Upsert", mock.Anything, userID, productID, 1).
		Return(&cart.CartItem{UserID: userID, ProductID: productID, Quantity: 1}, nil).
		Once()

	item, err := cartService.Add(context.Background(), userID, productID, 0)
	require.NoError(t, err)
	require.Equal(t, 1, item.Quantity)
	mockRepo.AssertExpectations(t)
	mockProducts.AssertExpectations(t)
}

func TestCartService_UpdateQuantity_RejectsZero(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockProducts := new(MockProductRepository)
	cartService := cart.NewService(mockRepo, mockProducts)

	err := cartService.UpdateQuantity(context.Background(), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), 0)
	require.Error(t, err)
	mockRepo.AssertNotCalled(t, "UpdateQuantity")
}

func TestCartService_Remove_NotFound(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockProducts := new(MockProductRepository)
	cartService := cart.NewService(mockRepo, mockProducts)

	userID := uuid.Must(uuid.NewV4())
	itemID := uuid.Must(uuid.NewV4())

	mockRepo.On("Delete", mock.Anything, userID, itemID).
		Return(cart.ErrItemNotFound).
		Once()

	err := cartService.Remove(context.Background(), userID, itemID)
	require.Error(t, err)
	require.ErrorIs(t, err, cart.ErrItemNotFound)
	mockRepo.AssertExpectations(t)
}
