package cart_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/money"
)

type stubCatalog map[uuid.UUID]catalog.VariantView

func (s stubCatalog) GetVariant(_ context.Context, id uuid.UUID) (catalog.VariantView, error) {
	v, ok := s[id]
	if !ok {
		return catalog.VariantView{}, common.ErrNotFound
	}
	return v, nil
}

func newCart(t *testing.T) (*cart.Service, *miniredis.Miniredis, stubCatalog) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cat := stubCatalog{}
	return &cart.Service{R: rdb, TTL: time.Hour, Catalog: cat}, mr, cat
}

func addVariant(cat stubCatalog, price money.Money, active bool) uuid.UUID {
	id := uuid.New()
	cat[id] = catalog.VariantView{ID: id, Price: price, Stock: 10, IsActive: active}
	return id
}

func TestAddMergesLinesAndSnapshotsPrice(t *testing.T) {
	svc, mr, cat := newCart(t)
	ctx := context.Background()
	v := addVariant(cat, money.MustParse("1249.50"), true)

	_, err := svc.Add(ctx, "sess-1", v, 1)
	require.NoError(t, err)
	c, err := svc.Add(ctx, "sess-1", v, 1)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	require.EqualValues(t, 2, c.Lines[0].Quantity)
	require.Equal(t, "2499.00", c.Subtotal.String())

	require.True(t, mr.Exists("cart:sess-1"))
	require.Equal(t, time.Hour, mr.TTL("cart:sess-1"))

	got, err := svc.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, c.Lines, got.Lines)
}

func TestAddRejectsUnavailableVariants(t *testing.T) {
	svc, _, cat := newCart(t)
	ctx := context.Background()
	inactive := addVariant(cat, 100, false)

	_, err := svc.Add(ctx, "s", inactive, 1)
	require.ErrorIs(t, err, common.ErrVariantUnavailable)
	_, err = svc.Add(ctx, "s", uuid.New(), 1)
	require.ErrorIs(t, err, common.ErrVariantUnavailable)
	_, err = svc.Add(ctx, "s", addVariant(cat, 100, true), 0)
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.Add(ctx, "", addVariant(cat, 100, true), 1)
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestUpdateRemoveClear(t *testing.T) {
	svc, mr, cat := newCart(t)
	ctx := context.Background()
	a := addVariant(cat, 100, true)
	b := addVariant(cat, 200, true)
	_, err := svc.Add(ctx, "s", a, 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "s", b, 1)
	require.NoError(t, err)

	c, err := svc.Update(ctx, "s", a, 5)
	require.NoError(t, err)
	require.EqualValues(t, 5, c.Lines[0].Quantity)
	require.EqualValues(t, 700, c.Subtotal)

	c, err = svc.Update(ctx, "s", a, 0)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)

	_, err = svc.Remove(ctx, "s", a)
	require.ErrorIs(t, err, common.ErrNotFound)

	c, err = svc.Remove(ctx, "s", b)
	require.NoError(t, err)
	require.Empty(t, c.Lines)
	require.False(t, mr.Exists("cart:s"))

	_, err = svc.Add(ctx, "s", a, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, "s"))
	got, err := svc.Get(ctx, "s")
	require.NoError(t, err)
	require.Empty(t, got.Lines)
}

func TestConcurrentAddsAreNotLost(t *testing.T) {
	svc, _, cat := newCart(t)
	ctx := context.Background()
	v := addVariant(cat, 100, true)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Add(ctx, "shared", v, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, common.ErrPersistenceConflict)
	}
	got, err := svc.Get(ctx, "shared")
	require.NoError(t, err)
	require.EqualValues(t, ok, got.Lines[0].Quantity)
}

func TestCartHandlers(t *testing.T) {
	svc, _, cat := newCart(t)
	v := addVariant(cat, 100, true)
	h := &cart.Handler{Svc: svc}
	r := chi.NewRouter()
	r.Get("/cart", h.Get)
	r.Post("/cart/items", h.AddItem)
	r.Patch("/cart/items/{variantID}", h.UpdateItem)
	r.Delete("/cart/items/{variantID}", h.RemoveItem)
	r.Delete("/cart", h.Clear)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(cart.SessionHeader, "sess")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/cart/items", `{"variant_id":"`+v.String()+`","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"quantity":2`)

	rec = do(http.MethodPatch, "/cart/items/"+v.String(), `{"quantity":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"subtotal":300`)

	rec = do(http.MethodDelete, "/cart/items/nope", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodDelete, "/cart", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
