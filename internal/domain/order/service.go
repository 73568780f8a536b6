package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-management/internal/domain/coupon"
)

// Coupons is the slice of the coupon service the order flow needs: resolving
// a code, pricing it, and consuming a redemption.
type Coupons interface {
	GetByCode(ctx context.Context, code string) (*coupon.Coupon, error)
	CalculateDiscount(ctx context.Context, code string, orderAmount decimal.Decimal) (decimal.Decimal, error)
	IncrementUsage(ctx context.Context, id string) (*coupon.Coupon, error)
}

// Service encapsulates order bookkeeping and the coupon redemption flow.
type Service struct {
	orders  Repository
	coupons Coupons
}

// NewService creates an order Service with the required dependencies.
func NewService(orders Repository, coupons Coupons) *Service {
	return &Service{orders: orders, coupons: coupons}
}

// GetByID returns the order with the given id, or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// List returns all orders.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.orders.List(ctx)
}

// ListByCustomer returns all orders for the given customer.
func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

// ListByStatus returns all orders currently in the given state.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Order, error) {
	if !status.IsKnown() {
		return nil, ErrUnknownStatus
	}
	return s.orders.ListByStatus(ctx, status)
}

// Create persists a plain order without coupon handling. The order starts in
// the created state.
func (s *Service) Create(ctx context.Context, o *Order) (*Order, error) {
	if !o.OriginalAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	o.Status = StatusCreated
	if o.FinalAmount.IsZero() {
		o.FinalAmount = o.OriginalAmount
	}

	saved, err := s.orders.Save(ctx, o)
	if err != nil {
		return nil, errors.Wrap(err, "save order")
	}
	return saved, nil
}

// PlaceOrderRequest holds the input for placing an order with an optional
// coupon code.
type PlaceOrderRequest struct {
	Name       string
	Amount     decimal.Decimal
	CustomerID string
	CouponCode string
}

// PlaceOrder prices the order, applying the coupon discount when a code is
// given, persists it, and then consumes one use of the coupon. The usage
// increment happens after the order is stored and fails closed when the
// coupon was exhausted by a concurrent redemption.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	discount := decimal.Zero
	var applied *coupon.Coupon
	if req.CouponCode != "" {
		c, err := s.coupons.GetByCode(ctx, req.CouponCode)
		if err != nil {
			return nil, errors.Wrap(err, "resolve coupon")
		}

		discount, err = s.coupons.CalculateDiscount(ctx, req.CouponCode, req.Amount)
		if err != nil {
			return nil, errors.Wrap(err, "calculate discount")
		}
		applied = c
	}

	final := req.Amount.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	o := &Order{
		ID:             uuid.New().String(),
		Name:           req.Name,
		OriginalAmount: req.Amount,
		FinalAmount:    final.Round(2),
		Status:         StatusCreated,
		CustomerID:     req.CustomerID,
		CouponCode:     req.CouponCode,
	}

	saved, err := s.orders.Save(ctx, o)
	if err != nil {
		return nil, errors.Wrap(err, "save order")
	}

	if applied != nil {
		if _, err := s.coupons.IncrementUsage(ctx, applied.ID); err != nil {
			return nil, errors.Wrap(err, "increment coupon usage")
		}
	}

	return saved, nil
}

// Update applies changes to an order's name, amounts, and customer.
func (s *Service) Update(ctx context.Context, id string, details *Order) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !details.OriginalAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	o.Name = details.Name
	o.OriginalAmount = details.OriginalAmount
	o.FinalAmount = details.FinalAmount
	o.CustomerID = details.CustomerID

	saved, err := s.orders.Save(ctx, o)
	if err != nil {
		return nil, errors.Wrap(err, "save order")
	}
	return saved, nil
}

// UpdateStatus moves an order to the given lifecycle state.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Order, error) {
	if !status.IsKnown() {
		return nil, ErrUnknownStatus
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	o.Status = status

	saved, err := s.orders.Save(ctx, o)
	if err != nil {
		return nil, errors.Wrap(err, "save order")
	}
	return saved, nil
}

// Delete removes the order with the given id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.orders.GetByID(ctx, id); err != nil {
		return err
	}
	return s.orders.Delete(ctx, id)
}
