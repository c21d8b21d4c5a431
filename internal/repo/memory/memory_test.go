package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
	"github.com/noah-isme/toko-checkout/internal/repo"
	"github.com/noah-isme/toko-checkout/internal/repo/memory"
)

func seedVariant(t *testing.T, q dbgen.Querier, sku string, price int64, stock int32) dbgen.Variant {
	t.Helper()
	ctx := context.Background()
	p, err := q.CreateProduct(ctx, "product "+sku)
	require.NoError(t, err)
	v, err := q.CreateVariant(ctx, dbgen.CreateVariantParams{
		ProductID: p.ID, Sku: sku, Name: sku, Price: price, Stock: stock, IsActive: true,
	})
	require.NoError(t, err)
	return v
}

func TestInTxRollsBackOnError(t *testing.T) {
	store := memory.New()
	v := seedVariant(t, store.Queries(), "SKU-1", 1000, 5)
	boom := errors.New("boom")

	err := store.InTx(context.Background(), func(q dbgen.Querier) error {
		n, err := q.DecrementVariantStock(context.Background(), dbgen.DecrementVariantStockParams{Qty: 3, ID: v.ID})
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Queries().GetVariant(context.Background(), v.ID)
	require.NoError(t, err)
	require.EqualValues(t, 5, got.Stock)
}

func TestInTxRollsBackOnCancelledContext(t *testing.T) {
	store := memory.New()
	v := seedVariant(t, store.Queries(), "SKU-1", 1000, 5)
	ctx, cancel := context.WithCancel(context.Background())

	err := store.InTx(ctx, func(q dbgen.Querier) error {
		_, err := q.DecrementVariantStock(ctx, dbgen.DecrementVariantStockParams{Qty: 2, ID: v.ID})
		cancel()
		return err
	})
	require.ErrorIs(t, err, context.Canceled)

	got, err := store.Queries().GetVariant(context.Background(), v.ID)
	require.NoError(t, err)
	require.EqualValues(t, 5, got.Stock)
}

func TestDecrementIsConditional(t *testing.T) {
	store := memory.New()
	q := store.Queries()
	v := seedVariant(t, q, "SKU-1", 1000, 2)
	ctx := context.Background()

	n, err := q.DecrementVariantStock(ctx, dbgen.DecrementVariantStockParams{Qty: 3, ID: v.ID})
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = q.DecrementVariantStock(ctx, dbgen.DecrementVariantStockParams{Qty: 2, ID: v.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = q.SoftDeleteVariant(ctx, v.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	n, err = q.IncrementVariantStock(ctx, dbgen.IncrementVariantStockParams{Qty: 1, ID: v.ID})
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRedeemCouponRespectsLimitUnderConcurrency(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	c, err := store.Queries().CreateCoupon(ctx, dbgen.CreateCouponParams{
		Code: "ONCE", DiscountType: dbgen.DiscountTypeFIXED, DiscountValue: 100,
		UsageLimit: pgtype.Int4{Int32: 1, Valid: true}, IsActive: true,
	})
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	redeemed := 0
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.InTx(ctx, func(q dbgen.Querier) error {
				n, err := q.RedeemCoupon(ctx, c.ID)
				if err != nil || n == 0 {
					return errors.New("not redeemed")
				}
				mu.Lock()
				redeemed++
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	require.Equal(t, 1, redeemed)
	got, err := store.Queries().GetCouponByCode(ctx, " once ")
	require.NoError(t, err)
	require.EqualValues(t, 1, got.UsedCount)
}

func TestCouponConstraints(t *testing.T) {
	q := memory.New().Queries()
	ctx := context.Background()
	params := dbgen.CreateCouponParams{Code: "SAVE10", DiscountType: dbgen.DiscountTypePERCENTAGE, DiscountValue: 10, IsActive: true}
	_, err := q.CreateCoupon(ctx, params)
	require.NoError(t, err)

	_, err = q.CreateCoupon(ctx, params)
	require.True(t, repo.IsUniqueViolation(err))

	params.Code = "lower"
	_, err = q.CreateCoupon(ctx, params)
	require.True(t, repo.IsCheckViolation(err))

	params.Code = "TOO-MUCH"
	params.DiscountValue = 101
	_, err = q.CreateCoupon(ctx, params)
	require.True(t, repo.IsCheckViolation(err))

	_, err = q.GetCouponByCode(ctx, "missing")
	require.True(t, repo.IsNoRows(err))
}

func TestBulkSetSkipsDeletedAndUnknown(t *testing.T) {
	store := memory.New()
	q := store.Queries()
	ctx := context.Background()
	a := seedVariant(t, q, "A", 100, 1)
	b := seedVariant(t, q, "B", 200, 1)
	_, err := q.SoftDeleteVariant(ctx, b.ID)
	require.NoError(t, err)

	ids, err := q.BulkSetVariants(ctx, dbgen.BulkSetVariantsParams{
		Stock: pgtype.Int4{Int32: 9, Valid: true},
		Ids:   []uuid.UUID{a.ID, b.ID, a.ID},
	})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a.ID}, ids)

	got, err := q.GetVariant(ctx, a.ID)
	require.NoError(t, err)
	require.EqualValues(t, 9, got.Stock)
	require.EqualValues(t, 100, got.Price)

	_, err = q.BulkSetVariants(ctx, dbgen.BulkSetVariantsParams{
		Stock: pgtype.Int4{Int32: -1, Valid: true},
		Ids:   []uuid.UUID{a.ID},
	})
	require.True(t, repo.IsCheckViolation(err))
}

func TestUpdateOrderStatusCompareAndSwap(t *testing.T) {
	q := memory.New().Queries()
	ctx := context.Background()
	o, err := q.CreateOrder(ctx, dbgen.CreateOrderParams{UserID: "u1", Status: dbgen.OrderStatusPENDING, Currency: "INR", Subtotal: 100, Total: 100})
	require.NoError(t, err)

	n, err := q.UpdateOrderStatus(ctx, dbgen.UpdateOrderStatusParams{ToStatus: dbgen.OrderStatusPROCESSING, ID: o.ID, FromStatus: dbgen.OrderStatusPENDING})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = q.UpdateOrderStatus(ctx, dbgen.UpdateOrderStatusParams{ToStatus: dbgen.OrderStatusCANCELLED, ID: o.ID, FromStatus: dbgen.OrderStatusPENDING})
	require.NoError(t, err)
	require.Zero(t, n)
}
