package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/order-management/internal/domain/coupon"
)

const couponColumns = `id, code, type, value, min_order_amount, max_uses, used_count,
	valid_from, valid_until, active, created_at, updated_at`

const (
	getCouponByIDSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE UPPER(code) = UPPER($1)`

	// used_count is deliberately absent from the conflict update: the counter
	// only ever moves through incrementCouponUsageSQL, so administrative saves
	// cannot clobber concurrent redemptions.
	upsertCouponSQL = `INSERT INTO coupons
		(id, code, type, value, min_order_amount, max_uses, used_count, valid_from, valid_until, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			value = EXCLUDED.value,
			min_order_amount = EXCLUDED.min_order_amount,
			max_uses = EXCLUDED.max_uses,
			valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until,
			active = EXCLUDED.active,
			updated_at = now()
		RETURNING ` + couponColumns

	deleteCouponSQL = `DELETE FROM coupons WHERE id = $1`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at`

	listCouponsByActiveSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE active = $1 ORDER BY created_at`

	// Window bounds are inclusive here, matching the listing semantics rather
	// than the strict-open redemption check.
	listValidCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons
		WHERE active = TRUE AND used_count < max_uses
			AND valid_from <= $1 AND valid_until >= $1
		ORDER BY created_at`

	// The predicate makes the check-and-increment a single atomic statement:
	// when the row is already at max_uses no row matches and nothing changes.
	incrementCouponUsageSQL = `UPDATE coupons
		SET used_count = used_count + 1, updated_at = now()
		WHERE id = $1 AND used_count < max_uses
		RETURNING ` + couponColumns
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// GetByID looks up a coupon by its id.
// Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) GetByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	return r.queryOne(ctx, getCouponByIDSQL, id)
}

// GetByCode looks up a coupon by its code (case-insensitive).
// Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return r.queryOne(ctx, getCouponByCodeSQL, code)
}

// Save upserts the coupon and returns the stored record. Code uniqueness is
// enforced by the database; a conflicting code surfaces as an opaque error.
func (r *CouponRepository) Save(ctx context.Context, c *coupon.Coupon) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, upsertCouponSQL,
		c.ID, c.Code, string(c.Type), c.Value, c.MinOrderAmount,
		c.MaxUses, c.UsedCount, c.ValidFrom, c.ValidUntil, c.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("saving coupon %q: %w", c.ID, err)
	}

	saved, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("saving coupon %q: %w", c.ID, err)
	}
	return &saved, nil
}

// Delete removes the coupon with the given id.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, id)
	if err != nil {
		return fmt.Errorf("deleting coupon %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// List returns all coupons.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	return r.queryMany(ctx, listCouponsSQL)
}

// ListByActive returns all coupons with the given active flag.
func (r *CouponRepository) ListByActive(ctx context.Context, active bool) ([]coupon.Coupon, error) {
	return r.queryMany(ctx, listCouponsByActiveSQL, active)
}

// ListValidAsOf returns all coupons redeemable at the given instant.
func (r *CouponRepository) ListValidAsOf(ctx context.Context, ts time.Time) ([]coupon.Coupon, error) {
	return r.queryMany(ctx, listValidCouponsSQL, ts)
}

// IncrementUsage atomically increments the usage counter via a conditional
// update. The affected-row count distinguishes success from exhaustion, so at
// most max_uses increments can ever succeed regardless of how many callers
// race on the same id.
func (r *CouponRepository) IncrementUsage(ctx context.Context, id string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, incrementCouponUsageSQL, id)
	if err != nil {
		return nil, fmt.Errorf("incrementing usage for coupon %q: %w", id, err)
	}

	updated, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("incrementing usage for coupon %q: %w", id, err)
	}

	// No row matched: either the coupon does not exist or it is exhausted.
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, coupon.ErrMaxUsesReached
}

func (r *CouponRepository) queryOne(ctx context.Context, sql string, args ...any) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying coupon: %w", err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("querying coupon: %w", err)
	}
	return &c, nil
}

func (r *CouponRepository) queryMany(ctx context.Context, sql string, args ...any) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}

	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return coupons, nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c   coupon.Coupon
		typ string
	)
	err := row.Scan(
		&c.ID, &c.Code, &typ, &c.Value, &c.MinOrderAmount,
		&c.MaxUses, &c.UsedCount, &c.ValidFrom, &c.ValidUntil,
		&c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	c.Type = coupon.Type(typ)
	return c, err
}
