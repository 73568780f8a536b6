package coupon

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Discount computes the discount amount the coupon yields for an order of the
// given amount at the given instant. It has no side effects and never mutates
// the coupon.
//
// Fixed coupons require orderAmount >= MinOrderAmount (inclusive) and yield
// min(Value, orderAmount). Percentage coupons ignore the minimum order amount
// and yield orderAmount * Value / 100, rounded half-up to 2 decimal places.
// The result is always within [0, orderAmount].
func Discount(c *Coupon, orderAmount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !c.IsValid(now) {
		return decimal.Zero, ErrNotUsable
	}

	switch c.Type {
	case TypeFixed:
		if orderAmount.LessThan(c.MinOrderAmount) {
			return decimal.Zero, ErrMinOrderAmount
		}
		return decimal.Min(c.Value, orderAmount).Round(2), nil
	case TypePercentage:
		// decimal.Round rounds half away from zero, which is half-up for the
		// non-negative amounts handled here.
		return orderAmount.Mul(c.Value).Div(hundred).Round(2), nil
	default:
		return decimal.Zero, errors.Errorf("unsupported coupon type: %q", c.Type)
	}
}

// Validate checks a coupon configuration before it is persisted. It is applied
// identically on create and on update.
func Validate(c *Coupon) error {
	if c.Type == TypePercentage && c.Value.GreaterThan(decimal.NewFromInt(50)) {
		return ErrPercentageTooHigh
	}
	if !c.ValidUntil.After(c.ValidFrom) {
		return ErrInvalidWindow
	}
	return nil
}
