package order_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/checkout"
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/order"
)

func withID(ctx context.Context, id string) context.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

func TestPatchStatusHandler(t *testing.T) {
	f := newFixture(t, 5)
	o := f.place(t, "u1", checkout.Line{VariantID: f.variants[0], Quantity: 1})
	h := &order.Handler{Svc: f.svc}

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"processing"}`)).
		WithContext(withID(admin, o.ID.String()))
	rec := httptest.NewRecorder()
	h.PatchStatus(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"delivered"}`)).
		WithContext(withID(admin, o.ID.String()))
	rec = httptest.NewRecorder()
	h.PatchStatus(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
	var body common.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, common.CodeInvalidState, body.Code)

	req = httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"teleported"}`)).
		WithContext(withID(admin, o.ID.String()))
	rec = httptest.NewRecorder()
	h.PatchStatus(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelAndGetHandlers(t *testing.T) {
	f := newFixture(t, 5)
	o := f.place(t, "u1", checkout.Line{VariantID: f.variants[0], Quantity: 1})
	h := &order.Handler{Svc: f.svc}

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(withID(stranger, o.ID.String())))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(withID(customer, "not-a-uuid")))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Cancel(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(withID(customer, o.ID.String())))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data order.View `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "CANCELLED", string(resp.Data.Status))

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/?page=1&limit=5", nil).WithContext(customer))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.AdminList(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(customer))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
