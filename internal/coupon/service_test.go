package coupon_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/coupon"
	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
	"github.com/noah-isme/toko-checkout/internal/money"
	"github.com/noah-isme/toko-checkout/internal/repo/memory"
)

func adminCtx() context.Context {
	return common.WithIdentity(context.Background(), common.Identity{ID: "admin-1", Role: common.RoleAdmin})
}

func newService(t *testing.T) (*coupon.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return &coupon.Service{
		Store: store,
		Now:   func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) },
		Log:   zerolog.Nop(),
	}, store
}

func int32p(v int32) *int32 { return &v }

func TestCreateRequiresAdmin(t *testing.T) {
	svc, _ := newService(t)
	customer := common.WithIdentity(context.Background(), common.Identity{ID: "u1", Role: "customer"})

	_, err := svc.Create(customer, coupon.Input{Code: "SAVE10", DiscountType: "PERCENTAGE", DiscountValue: 10})
	require.ErrorIs(t, err, common.ErrAuthorizationDenied)

	_, err = svc.Create(context.Background(), coupon.Input{Code: "SAVE10", DiscountType: "PERCENTAGE", DiscountValue: 10})
	require.ErrorIs(t, err, common.ErrAuthorizationDenied)
}

func TestCreateNormalizesAndRejectsDuplicates(t *testing.T) {
	svc, _ := newService(t)
	ctx := adminCtx()

	view, err := svc.Create(ctx, coupon.Input{Code: " save10 ", DiscountType: "PERCENTAGE", DiscountValue: 10})
	require.NoError(t, err)
	require.Equal(t, "SAVE10", view.Code)
	require.True(t, view.IsActive)

	_, err = svc.Create(ctx, coupon.Input{Code: "SAVE10", DiscountType: "FIXED", DiscountValue: 100})
	require.ErrorIs(t, err, common.ErrConflict)
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _ := newService(t)
	ctx := adminCtx()

	_, err := svc.Create(ctx, coupon.Input{Code: "X", DiscountType: "BOGUS", DiscountValue: 1})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Create(ctx, coupon.Input{Code: "X", DiscountType: "PERCENTAGE", DiscountValue: 0})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Create(ctx, coupon.Input{Code: "X", DiscountType: "PERCENTAGE", DiscountValue: 101})
	require.ErrorIs(t, err, common.ErrValidation)

	full, err := svc.Create(ctx, coupon.Input{Code: "FREE", DiscountType: "PERCENTAGE", DiscountValue: 100})
	require.NoError(t, err)
	require.Equal(t, int64(100), full.DiscountValue)
}

func TestValidateThroughUnitOfWork(t *testing.T) {
	svc, store := newService(t)
	ctx := adminCtx()
	_, err := svc.Create(ctx, coupon.Input{Code: "SAVE10", DiscountType: "PERCENTAGE", DiscountValue: 10})
	require.NoError(t, err)

	res, err := svc.Validate(ctx, store.Queries(), "save10", money.MustParse("2499"))
	require.NoError(t, err)
	require.Equal(t, money.MustParse("249.90"), res.DiscountAmount)

	_, err = svc.Validate(ctx, store.Queries(), "missing", money.MustParse("2499"))
	require.ErrorIs(t, err, common.ErrCouponNotFound)

	_, err = svc.Validate(ctx, store.Queries(), "   ", money.MustParse("2499"))
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestRedeemStopsAtLimit(t *testing.T) {
	svc, store := newService(t)
	ctx := adminCtx()
	view, err := svc.Create(ctx, coupon.Input{Code: "ONCE", DiscountType: "FIXED", DiscountValue: 100, UsageLimit: int32p(1)})
	require.NoError(t, err)

	err = store.InTx(ctx, func(q dbgen.Querier) error { return svc.Redeem(ctx, q, view.ID) })
	require.NoError(t, err)

	err = store.InTx(ctx, func(q dbgen.Querier) error { return svc.Redeem(ctx, q, view.ID) })
	require.ErrorIs(t, err, common.ErrPersistenceConflict)

	got, err := svc.Get(ctx, "once")
	require.NoError(t, err)
	require.EqualValues(t, 1, got.UsedCount)

	_, err = svc.Preview(ctx, "ONCE", money.MustParse("10"))
	require.ErrorIs(t, err, common.ErrUsageLimitReached)
}

func TestUpdateListDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := adminCtx()
	_, err := svc.Create(ctx, coupon.Input{Code: "A", DiscountType: "FIXED", DiscountValue: 100})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(ctx, "A", coupon.Input{DiscountType: "FIXED", DiscountValue: 250, IsActive: &inactive})
	require.NoError(t, err)
	require.EqualValues(t, 250, updated.DiscountValue)
	require.False(t, updated.IsActive)

	kept, err := svc.Update(ctx, "A", coupon.Input{DiscountType: "FIXED", DiscountValue: 300, MinOrderAmount: 5000})
	require.NoError(t, err)
	require.EqualValues(t, 5000, kept.MinOrderAmount)
	require.False(t, kept.IsActive, "omitted is_active must not reactivate the coupon")

	active := true
	reactivated, err := svc.Update(ctx, "A", coupon.Input{DiscountType: "FIXED", DiscountValue: 300, IsActive: &active})
	require.NoError(t, err)
	require.True(t, reactivated.IsActive)

	_, err = svc.Update(ctx, "NOPE", coupon.Input{DiscountType: "FIXED", DiscountValue: 1})
	require.ErrorIs(t, err, common.ErrCouponNotFound)

	list, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, "a"))
	require.ErrorIs(t, svc.Delete(ctx, "a"), common.ErrCouponNotFound)
}
