package checkout_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/checkout"
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/money"
)

type stubCarts map[string]cart.Cart

func (s stubCarts) Get(_ context.Context, session string) (cart.Cart, error) {
	return s[session], nil
}

func postJSON(t *testing.T, h http.HandlerFunc, ctx context.Context, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(raw)).WithContext(ctx)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestCheckoutHandlerUsesSessionCart(t *testing.T) {
	f := newFixture(t)
	id := f.variant(t, "A", money.MustParse("100"), 5)
	h := &checkout.Handler{Svc: f.svc, Carts: stubCarts{
		"sess-1": {SessionID: "sess-1", Lines: []cart.Line{{VariantID: id, UnitPrice: money.MustParse("100"), Quantity: 2}}},
	}}
	ctx := common.WithUserID(context.Background(), "u1")

	rec := postJSON(t, h.Checkout, ctx, map[string]any{"shipping_address": address}, map[string]string{cart.SessionHeader: "sess-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			ID     uuid.UUID `json:"id"`
			Status string    `json:"status"`
			Total  int64     `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "PENDING", resp.Data.Status)
	// 200.00 + 49.00 shipping + 36.00 tax
	require.Equal(t, int64(28500), resp.Data.Total)
	require.Equal(t, int32(3), f.stock(t, id))
}

func TestCheckoutHandlerErrors(t *testing.T) {
	f := newFixture(t)
	id := f.variant(t, "A", money.MustParse("100"), 1)
	h := &checkout.Handler{Svc: f.svc, Carts: stubCarts{}}

	rec := postJSON(t, h.Checkout, context.Background(), map[string]any{}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	ctx := common.WithUserID(context.Background(), "u1")
	rec = postJSON(t, h.Checkout, ctx, map[string]any{"shipping_address": address}, map[string]string{cart.SessionHeader: "empty"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.Checkout, ctx, map[string]any{
		"items":            []map[string]any{{"variant_id": id, "quantity": 2}},
		"shipping_address": address,
	}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	var body common.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, common.CodeInsufficientStock, body.Code)
}

func TestQuoteHandler(t *testing.T) {
	f := newFixture(t)
	id := f.variant(t, "A", money.MustParse("2499"), 1)
	h := &checkout.Handler{Svc: f.svc}

	rec := postJSON(t, h.Quote, context.Background(), map[string]any{
		"items": []map[string]any{{"variant_id": id, "quantity": 1}},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data struct {
			Breakdown struct {
				Subtotal int64 `json:"subtotal"`
				Shipping int64 `json:"shipping"`
			} `json:"breakdown"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, int64(249900), resp.Data.Breakdown.Subtotal)
	require.Zero(t, resp.Data.Breakdown.Shipping)
}
