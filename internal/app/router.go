package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/audit"
	"github.com/noah-isme/toko-checkout/internal/auth"
	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/checkout"
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/coupon"
	"github.com/noah-isme/toko-checkout/internal/health"
	"github.com/noah-isme/toko-checkout/internal/maintenance"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/order"
	"github.com/noah-isme/toko-checkout/internal/ratelimit"
	"github.com/noah-isme/toko-checkout/internal/security"
)

// Handlers groups the HTTP handlers mounted by Router.
type Handlers struct {
	Catalog     *catalog.Handler
	Cart        *cart.Handler
	Coupon      *coupon.Handler
	Checkout    *checkout.Handler
	Order       *order.Handler
	Maintenance *maintenance.Handler
	Health      health.Handler
}

// Router mounts the API under /api/v1 with health and metrics at the root.
type Router struct {
	Logger        zerolog.Logger
	Auth          auth.Middleware
	Idem          common.Idem
	CheckoutLimit ratelimit.Handler
	Metrics       *obs.HTTPMetrics
	Audit         audit.Recorder
	// Gatherer serves /metrics. Nil disables the endpoint.
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	HSTS        bool
	Handlers    Handlers
}

// Build returns the root handler.
func (rt Router) Build() http.Handler {
	h := rt.Handlers
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.SpanRouteMiddleware)
	r.Use(obs.HTTPObs{Metrics: rt.Metrics}.Middleware)
	r.Use(security.Headers{HSTS: rt.HSTS}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(rt.CORSOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", cart.SessionHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health/live", h.Health.Live)
	r.Get("/health/ready", h.Health.Ready)
	if rt.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(rt.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: maxBodyBytes}.Middleware)
		v.Use(rt.Auth.Authenticate)
		v.Use(obs.RequestLogger{Logger: rt.Logger}.Middleware)

		v.Get("/variants", h.Catalog.ListVariants)
		v.Get("/variants/{id}", h.Catalog.GetVariant)

		v.Route("/cart", func(c chi.Router) {
			c.Get("/", h.Cart.Get)
			c.Delete("/", h.Cart.Clear)
			c.Post("/items", h.Cart.AddItem)
			c.Patch("/items/{variantID}", h.Cart.UpdateItem)
			c.Delete("/items/{variantID}", h.Cart.RemoveItem)
			c.Post("/quote", h.Checkout.Quote)
		})
		v.Post("/coupons/validate", h.Coupon.Validate)
		v.Post("/checkout/quote", h.Checkout.Quote)

		v.With(rt.Auth.RequireAuth, rt.CheckoutLimit.Middleware, rt.Idem.Middleware).
			Post("/checkout", h.Checkout.Checkout)

		v.Group(func(c chi.Router) {
			c.Use(rt.Auth.RequireAuth)
			c.Get("/orders", h.Order.List)
			c.Get("/orders/{id}", h.Order.Get)
			c.With(rt.Idem.Middleware).Post("/orders/{id}/cancel", h.Order.Cancel)
		})

		v.Route("/admin", func(a chi.Router) {
			a.Use(rt.Auth.RequireAuth)
			a.Use(auth.RequireRole(common.RoleAdmin))
			a.Use(rt.Audit.Middleware)

			a.Get("/coupons", h.Coupon.List)
			a.Post("/coupons", h.Coupon.Create)
			a.Get("/coupons/{code}", h.Coupon.Get)
			a.Put("/coupons/{code}", h.Coupon.Update)
			a.Delete("/coupons/{code}", h.Coupon.Delete)

			a.Get("/orders", h.Order.AdminList)
			a.Patch("/orders/{id}/status", h.Order.PatchStatus)

			a.Post("/variants", h.Catalog.CreateVariant)
			a.Delete("/variants/{id}", h.Catalog.DeleteVariant)
			a.Route("/variants/bulk", func(b chi.Router) {
				b.Use(rt.Idem.Middleware)
				b.Post("/price", h.Maintenance.AdjustPrice)
				b.Post("/visibility", h.Maintenance.ToggleVisibility)
				b.Post("/stock", h.Maintenance.SetStock)
			})
		})
	})
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
