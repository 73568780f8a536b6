package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service encapsulates coupon administration, discount calculation, and usage
// accounting on top of a Repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a coupon Service backed by the given Repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// GetByID returns the coupon with the given id, or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*Coupon, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByCode returns the coupon with the given code, or ErrNotFound.
func (s *Service) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	return s.repo.GetByCode(ctx, code)
}

// List returns all coupons.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	return s.repo.List(ctx)
}

// ListByActive returns all coupons with the given active flag.
func (s *Service) ListByActive(ctx context.Context, active bool) ([]Coupon, error) {
	return s.repo.ListByActive(ctx, active)
}

// ListValid returns all coupons that are currently redeemable: active, under
// their usage ceiling, and inside their validity window as of now.
func (s *Service) ListValid(ctx context.Context) ([]Coupon, error) {
	return s.repo.ListValidAsOf(ctx, s.now())
}

// Create validates and persists a new coupon. The usage counter starts at
// zero, the coupon starts active, and a code is generated when none is
// supplied.
func (s *Service) Create(ctx context.Context, c *Coupon) (*Coupon, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Code == "" {
		code, err := GenerateCode()
		if err != nil {
			return nil, errors.Wrap(err, "generate code")
		}
		c.Code = code
	}
	c.UsedCount = 0
	c.Active = true

	saved, err := s.repo.Save(ctx, c)
	if err != nil {
		return nil, errors.Wrap(err, "save coupon")
	}
	return saved, nil
}

// Update revalidates and applies administrative changes to an existing coupon.
// The code and usage counter are immutable here; only type, value, limits,
// window, and the active flag change.
func (s *Service) Update(ctx context.Context, id string, details *Coupon) (*Coupon, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := Validate(details); err != nil {
		return nil, err
	}

	c.Type = details.Type
	c.Value = details.Value
	c.MinOrderAmount = details.MinOrderAmount
	c.MaxUses = details.MaxUses
	c.ValidFrom = details.ValidFrom
	c.ValidUntil = details.ValidUntil
	c.Active = details.Active

	saved, err := s.repo.Save(ctx, c)
	if err != nil {
		return nil, errors.Wrap(err, "save coupon")
	}
	return saved, nil
}

// Deactivate flips the administrative kill switch; nothing else changes.
func (s *Service) Deactivate(ctx context.Context, id string) (*Coupon, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Active = false

	saved, err := s.repo.Save(ctx, c)
	if err != nil {
		return nil, errors.Wrap(err, "save coupon")
	}
	return saved, nil
}

// Delete removes the coupon with the given id. Outstanding redemptions do not
// guard deletion.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// CalculateDiscount resolves the coupon by code and computes the discount it
// yields for an order of the given amount. It does not consume the coupon.
func (s *Service) CalculateDiscount(ctx context.Context, code string, orderAmount decimal.Decimal) (decimal.Decimal, error) {
	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	return Discount(c, orderAmount, s.now())
}

// IncrementUsage records one redemption of the coupon. The repository performs
// the check-and-increment atomically, so concurrent callers racing on the same
// coupon can never push UsedCount past MaxUses.
func (s *Service) IncrementUsage(ctx context.Context, id string) (*Coupon, error) {
	return s.repo.IncrementUsage(ctx, id)
}
