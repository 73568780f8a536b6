// Command coupon-ingest loads bulk promo-code dumps into the coupon table.
// The dumps are large gzip files of one code per line and contain garbage: a
// code is only accepted when it appears in at least two of the three files.
// Membership is tested with per-file bloom filters so the whole run fits in
// memory.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/order-management/internal/domain/coupon"
	"github.com/xenking/order-management/internal/repository"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	numFiles      = 3
	progressEvery = 10_000_000
)

// codeRule describes the coupon to create for a known promo code.
type codeRule struct {
	couponType coupon.Type
	value      string
	minOrder   string
	maxUses    int
}

var codeRules = map[string]codeRule{
	"FIFTYOFF": {couponType: coupon.TypePercentage, value: "50", maxUses: 1_000},
	"HAPPYHRS": {couponType: coupon.TypePercentage, value: "18", maxUses: 50_000},
	"GNULINUX": {couponType: coupon.TypePercentage, value: "15", maxUses: 10_000},
	"OVER9000": {couponType: coupon.TypeFixed, value: "9", maxUses: 9_000},
	"BIGSAVER": {couponType: coupon.TypeFixed, value: "25", minOrder: "100", maxUses: 5_000},
}

var defaultRule = codeRule{
	couponType: coupon.TypePercentage,
	value:      "10",
	maxUses:    100_000,
}

// scanResult carries the candidate codes one file contributed in pass 2.
type scanResult struct {
	candidates map[string]uint
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing couponbaseN.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files := make([]string, numFiles)
	for i := range numFiles {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("couponbase%d.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "stat %s", f)
		}
	}

	// Pass 1: one bloom filter per file.
	slog.Info("pass 1: building bloom filters", slog.Int("files", numFiles))

	filters, err := buildFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: a code counts when another file's filter also knows it.
	slog.Info("pass 2: finding candidate codes")

	validCodes, err := collectValidCodes(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find valid codes")
	}

	slog.Info("valid codes found", slog.Int("count", len(validCodes)))

	if len(validCodes) == 0 {
		slog.Info("no valid codes to insert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := writeCoupons(ctx, repository.NewCouponRepository(pool), validCodes); err != nil {
		return errors.Wrap(err, "write coupons to database")
	}

	return nil
}

// buildFilters streams every file once and fills one bloom filter per file.
func buildFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(filterBuilder(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func filterBuilder(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := forEachCode(ctx, path, func(code string) {
			if len(code) != coupon.CodeLength {
				return
			}
			filter.AddString(code)
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress",
					slog.Int("file", idx+1),
					slog.Uint64("seen", count),
				)
			}
		}); err != nil {
			return errors.Wrapf(err, "fill filter %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("file", idx+1),
			slog.Uint64("seen", count),
		)

		filters[idx] = filter
		return nil
	}
}

// collectValidCodes re-streams each file and checks codes against the OTHER
// files' bloom filters. A code is valid when it appears in 2 or more files.
func collectValidCodes(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, error) {
	results := make([]scanResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(candidateScanner(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// OR the per-file membership masks together.
	merged := make(map[string]uint)
	for _, r := range results {
		for code, mask := range r.candidates {
			merged[code] |= mask
		}
	}

	var valid []string
	for code, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			valid = append(valid, code)
		}
	}

	return valid, nil
}

func candidateScanner(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []scanResult,
) func() error {
	return func() error {
		candidates := make(map[string]uint)
		fileBit := uint(1) << uint(idx)
		var count uint64

		if err := forEachCode(ctx, path, func(code string) {
			if len(code) != coupon.CodeLength {
				return
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("file", idx+1),
					slog.Uint64("seen", count),
				)
			}

			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(code) {
					candidates[code] |= fileBit
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "collect candidates from file %d", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("file", idx+1),
			slog.Uint64("seen", count),
			slog.Int("candidates", len(candidates)),
		)

		results[idx] = scanResult{candidates: candidates}
		return nil
	}
}

// forEachCode streams a gzipped dump line by line, invoking fn per code.
func forEachCode(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// writeCoupons upserts all valid codes as coupons. IDs derive from the code
// so reruns update instead of duplicating.
func writeCoupons(ctx context.Context, repo *repository.CouponRepository, codes []string) error {
	slog.Info("writing coupons to database", slog.Int("count", len(codes)))

	now := time.Now().UTC()
	for i, code := range codes {
		rule, ok := codeRules[code]
		if !ok {
			rule = defaultRule
		}

		c := coupon.Coupon{
			ID:         uuid.NewSHA1(uuid.NameSpaceOID, []byte(code)).String(),
			Code:       code,
			Type:       rule.couponType,
			Value:      decimal.RequireFromString(rule.value),
			MaxUses:    rule.maxUses,
			ValidFrom:  now.AddDate(0, 0, -1),
			ValidUntil: now.AddDate(1, 0, 0),
			Active:     true,
		}
		if rule.minOrder != "" {
			c.MinOrderAmount = decimal.RequireFromString(rule.minOrder)
		}
		if err := coupon.Validate(&c); err != nil {
			return errors.Wrapf(err, "validate coupon %s", code)
		}

		if _, err := repo.Save(ctx, &c); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", code)
		}

		if (i+1)%100 == 0 || i+1 == len(codes) {
			slog.Info("upsert progress", slog.Int("done", i+1), slog.Int("total", len(codes)))
		}
	}

	return nil
}
