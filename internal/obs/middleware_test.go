package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/obs"
)

func TestHTTPMetricsLabelRoutes(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("toko", []float64{10, 1}, registry)

	r := chi.NewRouter()
	r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders/123", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/orders/{id}", "204")))
	require.Positive(t, testutil.CollectAndCount(metrics.ReqDur))
	require.Zero(t, testutil.ToFloat64(metrics.InFlight))

	again := obs.NewHTTPMetrics("toko", nil, registry)
	require.Same(t, metrics.ReqTotal, again.ReqTotal)
}

func TestRequestLoggerLevelsByStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := chi.NewRouter()
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Post("/checkout", func(w http.ResponseWriter, r *http.Request) {
		common.WriteError(w, common.ErrInsufficientStock)
	})

	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req = req.WithContext(common.WithIdentity(req.Context(), common.Identity{ID: "u1", Role: "customer"}))
	r.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "warn", line["level"])
	require.Equal(t, "/checkout", line["route"])
	require.Equal(t, float64(http.StatusConflict), line["status"])
	require.Equal(t, "u1", line["user_id"])
}

func TestQueryName(t *testing.T) {
	require.Equal(t, "DecrementVariantStock", obs.QueryName("-- name: DecrementVariantStock :execrows\nUPDATE variants SET stock = stock - $1"))
	require.Equal(t, "SELECT", obs.QueryName("select 1"))
	require.Equal(t, "query", obs.QueryName("  "))
}
