package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
)

const (
	defaultPageSize = 12
	maxPageSize     = 100
)

type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	GetByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*Product, error)
	Create(ctx context.Context, p *Product) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = defaultPageSize
	}
	if params.Limit > maxPageSize {
		params.Limit = maxPageSize
	}

	products, total, err := s.repo.List(ctx, params)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list products in repository")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}

	totalPages := (total + params.Limit - 1) / params.Limit

	return &ListResult{
		Products:   products,
		Page:       params.Page,
		TotalPages: totalPages,
		Total:      total,
		HasMore:    params.Page < totalPages,
	}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id, includeInactive)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to fetch product")
		return nil, fmt.Errorf("service: failed to fetch product by id: %w", err)
	}
	return p, nil
}

func (s *service) Create(ctx context.Context, p *Product) (*Product, error) {
	if p.Name == "" {
		return nil, errors.New("service: product name is required")
	}
	if p.Price < 0 {
		return nil, errors.New("service: product price cannot be negative")
	}
	if p.Stock < 0 {
		return nil, errors.New("service: product stock cannot be negative")
	}

	p.Slug = slug.Make(p.Name)

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrSKUExists) {
			return nil, ErrSKUExists
		}
		log.Error().Err(err).Msg("service: failed to create product in repository")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Stringer("product_id", p.ID).Str("slug", p.Slug).Msg("service: product created")
	return p, nil
}

func (s *service) Update(ctx context.Context, p *Product) error {
	if p.Price < 0 {
		return errors.New("service: product price cannot be negative")
	}
	if p.Stock < 0 {
		return errors.New("service: product stock cannot be negative")
	}

	p.Slug = slug.Make(p.Name)

	err := s.repo.Update(ctx, p)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrSKUExists) {
			return err
		}
		log.Error().Err(err).Stringer("product_id", p.ID).Msg("service: failed to update product")
		return fmt.Errorf("service: failed to update product: %w", err)
	}
	return nil
}

// Delete removes the product row outright. The storefront has no soft delete;
// deactivate via IsActive to hide a product without losing order history.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to delete product")
		return fmt.Errorf("service: failed to delete product: %w", err)
	}
	log.Info().Stringer("product_id", id).Msg("service: product deleted")
	return nil
}
