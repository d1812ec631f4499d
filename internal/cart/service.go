package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sainikcanteen/storefront/internal/product"
)

type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartItem, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	products product.Repository
}

func NewService(repo Repository, products product.Repository) Service {
	return &service{repo: repo, products: products}
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	lines, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch cart")
		return nil, fmt.Errorf("service: failed to fetch cart: %w", err)
	}

	total := 0.0
	for i := range lines {
		total += lines[i].UnitPrice() * float64(lines[i].Quantity)
	}

	return &Cart{Items: lines, Total: total}, nil
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartItem, error) {
	if quantity < 1 {
		quantity = 1
	}

	// The product must exist and be customer-visible before it can be carted.
	if _, err := s.products.GetByID(ctx, productID, false); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, product.ErrNotFound
		}
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to check product before cart add")
		return nil, fmt.Errorf("service: failed to check product: %w", err)
	}

	item, err := s.repo.Upsert(ctx, userID, productID, quantity)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).Msg("service: failed to add cart item")
		return nil, fmt.Errorf("service: failed to add cart item: %w", err)
	}
	return item, nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return errors.New("service: quantity must be at least 1")
	}

	err := s.repo.UpdateQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		log.Error().Err(err).Stringer("item_id", itemID).Msg("service: failed to update cart item quantity")
		return fmt.Errorf("service: failed to update cart item quantity: %w", err)
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	err := s.repo.Delete(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		log.Error().Err(err).Stringer("item_id", itemID).Msg("service: failed to remove cart item")
		return fmt.Errorf("service: failed to remove cart item: %w", err)
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to clear cart")
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}
	return nil
}
