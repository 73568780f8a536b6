package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported coupon discount strategies. The set is closed:
// discount computation switches exhaustively over it and rejects unknown tags.
type Type string

const (
	// TypeFixed subtracts a flat monetary amount, capped at the order total.
	TypeFixed Type = "fixed"
	// TypePercentage subtracts a percentage of the order total.
	TypePercentage Type = "percentage"
)

var (
	// ErrNotFound is returned when no coupon exists for a given id or code.
	ErrNotFound = errors.New("coupon not found")

	// ErrPercentageTooHigh is returned on create/update when a percentage
	// coupon's value exceeds 50.
	ErrPercentageTooHigh = errors.New("percentage discount cannot exceed 50%")
	// ErrInvalidWindow is returned on create/update when the validity window
	// is empty or inverted.
	ErrInvalidWindow = errors.New("valid until date must be after valid from date")

	// ErrNotUsable is returned when a coupon cannot be applied right now:
	// inactive, exhausted, or outside its validity window.
	ErrNotUsable = errors.New("coupon is not valid")
	// ErrMinOrderAmount is returned when a fixed coupon is applied to an
	// order below its minimum order amount.
	ErrMinOrderAmount = errors.New("order amount does not meet minimum requirement for this coupon")
	// ErrMaxUsesReached is returned when incrementing usage on a coupon whose
	// redemption ceiling is already reached.
	ErrMaxUsesReached = errors.New("coupon has reached maximum uses")
)

// IsInvalidArgument reports whether err rejects a malformed coupon
// configuration submitted at create/update time.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrPercentageTooHigh) || errors.Is(err, ErrInvalidWindow)
}

// IsInvalidState reports whether err rejects applying a structurally valid
// coupon for business-rule reasons, as opposed to bad input.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrNotUsable) ||
		errors.Is(err, ErrMinOrderAmount) ||
		errors.Is(err, ErrMaxUsesReached)
}

// Coupon represents one promotional code.
type Coupon struct {
	ID             string
	Code           string
	Type           Type
	Value          decimal.Decimal
	MinOrderAmount decimal.Decimal
	MaxUses        int
	UsedCount      int
	ValidFrom      time.Time
	ValidUntil     time.Time
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsValid reports whether the coupon is currently usable: active, under its
// usage ceiling, and inside its validity window. The window is strictly open:
// now must be after ValidFrom and before ValidUntil, so the exact boundary
// instants are invalid.
func (c *Coupon) IsValid(now time.Time) bool {
	return c.Active &&
		c.UsedCount < c.MaxUses &&
		now.After(c.ValidFrom) &&
		now.Before(c.ValidUntil)
}

// CanApplyToOrder reports whether the coupon may be applied to an order of
// the given amount. The minimum order amount is only enforced for fixed
// coupons; percentage coupons apply regardless of order size.
func (c *Coupon) CanApplyToOrder(orderAmount decimal.Decimal, now time.Time) bool {
	if !c.IsValid(now) {
		return false
	}
	if c.Type == TypeFixed {
		return orderAmount.GreaterThanOrEqual(c.MinOrderAmount)
	}
	return true
}

// Repository provides lookup and mutation of coupons.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Coupon, error)
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	Save(ctx context.Context, c *Coupon) (*Coupon, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Coupon, error)
	ListByActive(ctx context.Context, active bool) ([]Coupon, error)
	ListValidAsOf(ctx context.Context, ts time.Time) ([]Coupon, error)

	// IncrementUsage adds one redemption to the coupon's usage counter and
	// returns the updated record. The check against MaxUses and the increment
	// must be atomic with respect to concurrent calls for the same id:
	// implementations return ErrMaxUsesReached instead of ever letting
	// UsedCount exceed MaxUses.
	IncrementUsage(ctx context.Context, id string) (*Coupon, error)
}
