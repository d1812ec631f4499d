package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingShipping = errors.New("shipping name, address, city and pincode are required")
	ErrNotOrderOwner   = errors.New("order does not belong to this user")
	ErrInvalidStatus   = errors.New("invalid order status")
	ErrBadTransition   = errors.New("invalid order status transition")
)

// Terminal states transition nowhere; Cancelled is reachable from every
// non-terminal state.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusProcessing: true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
		StatusCancelled: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

// PlacementInput is what checkout submits: the shipping snapshot, the payment
// method and, for gateway payments, the correlation ids handed back by the
// payment widget.
type PlacementInput struct {
	Shipping          Shipping
	PaymentMethod     string
	RazorpayOrderID   string
	RazorpayPaymentID string
}

type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlacementInput) (*Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListAll(ctx context.Context, page, limit int) ([]Order, int, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlacementInput) (*Order, error) {
	sh := input.Shipping
	if sh.Name == "" || sh.Address == "" || sh.City == "" || sh.Pincode == "" {
		return nil, ErrMissingShipping
	}

	method := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	if method == "" {
		method = MethodCOD
	}

	o := &Order{
		UserID:        userID,
		Shipping:      sh,
		PaymentMethod: method,
	}

	// COD stays Pending until fulfillment; gateway orders arrive here only
	// after the in-browser payment step, so they are recorded Paid and move
	// straight to Processing.
	if method == MethodCOD {
		o.Status = StatusPending
		o.PaymentStatus = PaymentPending
	} else {
		o.Status = StatusProcessing
		o.PaymentStatus = PaymentPaid
		if input.RazorpayOrderID != "" {
			o.RazorpayOrderID = &input.RazorpayOrderID
		}
		if input.RazorpayPaymentID != "" {
			o.RazorpayPaymentID = &input.RazorpayPaymentID
		}
	}

	if err := s.repo.PlaceOrder(ctx, o); err != nil {
		if errors.Is(err, ErrEmptyCart) || errors.Is(err, ErrOutOfStock) {
			return nil, err
		}
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to place order")
		return nil, fmt.Errorf("service: failed to place order: %w", err)
	}

	log.Info().
		Stringer("order_id", o.ID).
		Stringer("user_id", userID).
		Str("payment_method", method).
		Float64("total", o.TotalAmount).
		Msg("service: order placed")

	return o, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return o, nil
}

func (s *service) GetByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}
	return orders, nil
}

func (s *service) ListAll(ctx context.Context, page, limit int) ([]Order, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	orders, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list all orders")
		return nil, 0, fmt.Errorf("service: failed to list all orders: %w", err)
	}
	return orders, total, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error {
	if !newStatus.Valid() {
		return ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to get order for status update")
		return fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if current.Status == newStatus {
		return nil
	}

	if !allowedTransitions[current.Status][newStatus] {
		log.Warn().
			Stringer("order_id", orderID).
			Stringer("current_status", current.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return fmt.Errorf("%w: %s to %s", ErrBadTransition, current.Status, newStatus)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, newStatus); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to update order status")
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().
		Stringer("order_id", orderID).
		Stringer("old_status", current.Status).
		Stringer("new_status", newStatus).
		Msg("service: order status updated")
	return nil
}
