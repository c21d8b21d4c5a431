// Command seeder loads demo variants and coupons and prints access tokens for
// local testing. Existing SKUs and codes are left as they are.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/app"
	"github.com/noah-isme/toko-checkout/internal/auth"
	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/config"
	"github.com/noah-isme/toko-checkout/internal/coupon"
	"github.com/noah-isme/toko-checkout/internal/db/migrations"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/repo"
)

type product struct {
	name     string
	variants []catalog.VariantInput
}

var products = []product{
	{name: "Classic Tee", variants: []catalog.VariantInput{
		{SKU: "TEE-BLK-S", Name: "Classic Tee Black S", Price: 49900, Stock: 40},
		{SKU: "TEE-BLK-M", Name: "Classic Tee Black M", Price: 49900, Stock: 60},
		{SKU: "TEE-BLK-L", Name: "Classic Tee Black L", Price: 54900, Stock: 25},
	}},
	{name: "Ceramic Mug", variants: []catalog.VariantInput{
		{SKU: "MUG-WHT", Name: "Ceramic Mug White", Price: 29900, Stock: 100},
		{SKU: "MUG-LTD", Name: "Ceramic Mug Limited", Price: 89900, Stock: 3},
	}},
}

func ptr[T any](v T) *T { return &v }

var coupons = []coupon.Input{
	{Code: "SAVE10", DiscountType: "PERCENTAGE", DiscountValue: 10},
	{Code: "FLAT200", DiscountType: "FIXED", DiscountValue: 20000, MinOrderAmount: 99900},
	{Code: "FIRST50", DiscountType: "PERCENTAGE", DiscountValue: 50, MaxDiscount: ptr(int64(30000)), UsageLimit: ptr(int32(100))},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := obs.NewLogger("console", "info")
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed failed")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if cfg.StoreDriver != config.StorePostgres {
		return errors.New("seeder needs STORE_DRIVER=postgres")
	}
	if err := migrations.Up(cfg.DatabaseURL); err != nil {
		return err
	}
	pool, err := app.OpenPostgres(ctx, cfg.DatabaseURL, "toko-checkout-seeder")
	if err != nil {
		return err
	}
	defer pool.Close()
	store := repo.NewPgxStore(pool)

	verifier, err := auth.NewVerifier(auth.Config{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
		AccessTTL: 24 * time.Hour,
	})
	if err != nil {
		return err
	}

	admin := common.Identity{ID: "seed-admin", Role: common.RoleAdmin}
	ctx = common.WithIdentity(ctx, admin)

	catalogSvc := &catalog.Service{Store: store, Log: logger}
	for _, p := range products {
		var productID *uuid.UUID
		for _, in := range p.variants {
			in.ProductID = productID
			in.ProductName = p.name
			v, err := catalogSvc.CreateVariant(ctx, in)
			if errors.Is(err, common.ErrConflict) {
				logger.Info().Str("sku", in.SKU).Msg("variant exists, skipped")
				continue
			}
			if err != nil {
				return fmt.Errorf("seed %s: %w", in.SKU, err)
			}
			productID = &v.ProductID
		}
	}

	couponSvc := &coupon.Service{Store: store, Log: logger}
	for _, in := range coupons {
		if _, err := couponSvc.Create(ctx, in); err != nil {
			if errors.Is(err, common.ErrConflict) {
				logger.Info().Str("code", in.Code).Msg("coupon exists, skipped")
				continue
			}
			return fmt.Errorf("seed coupon %s: %w", in.Code, err)
		}
	}

	adminToken, _, err := verifier.SignAccessToken(admin, "admin@toko.local")
	if err != nil {
		return err
	}
	buyerToken, _, err := verifier.SignAccessToken(common.Identity{ID: "seed-buyer", Role: "customer"}, "buyer@toko.local")
	if err != nil {
		return err
	}
	fmt.Printf("ADMIN_TOKEN=%s\nBUYER_TOKEN=%s\n", adminToken, buyerToken)
	return nil
}
