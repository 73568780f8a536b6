// Command seed-db provisions a database with a set of demo coupons and a
// default API key, running migrations first. It is idempotent: every record
// is upserted under a fixed id.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-management/internal/domain/coupon"
	"github.com/xenking/order-management/internal/repository"
)

func main() {
	var (
		databaseURL  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or ORDERS_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or ORDERS_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("ORDERS_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or ORDERS_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("ORDERS_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCoupons(ctx, repository.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if err := seedAPIKey(ctx, repository.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedCoupons(ctx context.Context, repo *repository.CouponRepository) error {
	slog.Info("seeding demo coupons")

	now := time.Now().UTC()
	coupons := []coupon.Coupon{
		{
			ID:         "9f1d6c2e-0000-4000-8000-000000000001",
			Code:       "WELCOME5",
			Type:       coupon.TypeFixed,
			Value:      decimal.RequireFromString("5.00"),
			MaxUses:    1000,
			ValidFrom:  now.AddDate(0, 0, -1),
			ValidUntil: now.AddDate(1, 0, 0),
			Active:     true,
		},
		{
			ID:             "9f1d6c2e-0000-4000-8000-000000000002",
			Code:           "SPEND50",
			Type:           coupon.TypeFixed,
			Value:          decimal.RequireFromString("10.00"),
			MinOrderAmount: decimal.RequireFromString("50.00"),
			MaxUses:        500,
			ValidFrom:      now.AddDate(0, 0, -1),
			ValidUntil:     now.AddDate(0, 6, 0),
			Active:         true,
		},
		{
			ID:         "9f1d6c2e-0000-4000-8000-000000000003",
			Code:       "HAPPY18P",
			Type:       coupon.TypePercentage,
			Value:      decimal.NewFromInt(18),
			MaxUses:    200,
			ValidFrom:  now.AddDate(0, 0, -1),
			ValidUntil: now.AddDate(0, 1, 0),
			Active:     true,
		},
	}

	for _, c := range coupons {
		if err := coupon.Validate(&c); err != nil {
			return errors.Wrapf(err, "validate coupon %s", c.Code)
		}
		if _, err := repo.Save(ctx, &c); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.Code)
		}
		slog.Info("upserted coupon", slog.String("code", c.Code), slog.String("type", string(c.Type)))
	}

	return nil
}

func seedAPIKey(ctx context.Context, repo *repository.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if err := repo.UpsertAPIKey(ctx, "default", keyHash, "Default admin key"); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))

	return nil
}
