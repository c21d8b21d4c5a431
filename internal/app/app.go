// Package app assembles the services and the HTTP router from configuration
// and process-level infrastructure.
package app

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/toko-checkout/internal/audit"
	"github.com/noah-isme/toko-checkout/internal/auth"
	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/checkout"
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/config"
	"github.com/noah-isme/toko-checkout/internal/coupon"
	"github.com/noah-isme/toko-checkout/internal/events"
	"github.com/noah-isme/toko-checkout/internal/health"
	"github.com/noah-isme/toko-checkout/internal/lock"
	"github.com/noah-isme/toko-checkout/internal/maintenance"
	"github.com/noah-isme/toko-checkout/internal/money"
	"github.com/noah-isme/toko-checkout/internal/notify"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/order"
	"github.com/noah-isme/toko-checkout/internal/pricing"
	"github.com/noah-isme/toko-checkout/internal/ratelimit"
	"github.com/noah-isme/toko-checkout/internal/repo"
	"github.com/noah-isme/toko-checkout/internal/resilience"
)

const maxBodyBytes = 1 << 20

// Infra is the plumbing shared by every service. Only Store is required.
type Infra struct {
	Store repo.Store
	Redis *redis.Client
	// Enqueuer hands notifications to the worker. Without it emails are sent
	// inline through Mail.
	Enqueuer notify.Enqueuer
	Mail     common.EmailSender
	// Kafka receives every domain event when set.
	Kafka    events.MessageWriter
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer
	Probes   map[string]health.Probe
	Log      zerolog.Logger
}

// App holds the wired services and the HTTP handler serving them.
type App struct {
	Verifier    *auth.Verifier
	Catalog     *catalog.Service
	Carts       *cart.Service
	Coupons     *coupon.Service
	Checkout    *checkout.Service
	Orders      *order.Service
	Maintenance *maintenance.Service
	Bus         *events.Bus
	Handler     http.Handler
}

// New wires the services described by cfg on top of infra.
func New(cfg *config.Config, infra Infra) (*App, error) {
	if infra.Store == nil {
		return nil, fmt.Errorf("app: store is required")
	}
	log := infra.Log

	verifier, err := auth.NewVerifier(auth.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if err != nil {
		return nil, fmt.Errorf("app: auth: %w", err)
	}

	bus := &events.Bus{Store: infra.Store.Queries(), Notifiers: notifiers(cfg, infra)}

	catalogSvc := &catalog.Service{
		Store: infra.Store,
		Cache: catalog.NewCache(infra.Redis, cfg.CatalogCacheTTL),
		Log:   log.With().Str("component", "catalog").Logger(),
	}
	carts := &cart.Service{R: infra.Redis, TTL: cfg.CartTTL, Catalog: catalogSvc}
	coupons := &coupon.Service{Store: infra.Store, Log: log.With().Str("component", "coupon").Logger()}
	checkoutSvc := &checkout.Service{
		Store:   infra.Store,
		Coupons: coupons,
		Policy: pricing.Policy{
			FlatShippingFee:       money.Money(cfg.Pricing.ShippingFlatFee),
			FreeShippingThreshold: money.Money(cfg.Pricing.FreeShippingThreshold),
			TaxPercent:            cfg.Pricing.TaxPercent,
		},
		Currency: cfg.Pricing.Currency,
		Retries:  cfg.Checkout.ConflictRetries,
		Timeout:  cfg.Checkout.Timeout,
		Events:   bus,
		Cart:     carts,
		Log:      log.With().Str("component", "checkout").Logger(),
	}
	orders := &order.Service{
		Store:   infra.Store,
		Events:  bus,
		Retries: cfg.Checkout.ConflictRetries,
		Log:     log.With().Str("component", "order").Logger(),
	}
	var locker lock.Locker = &lock.Local{}
	if infra.Redis != nil {
		locker = lock.Redis{R: infra.Redis, RetryBackoff: cfg.LockRetry}
	}
	bulk := &maintenance.Service{
		Store:   infra.Store,
		Locker:  locker,
		LockTTL: cfg.LockTTL,
		Retries: cfg.Checkout.ConflictRetries,
		Cache:   catalogSvc,
		Log:     log.With().Str("component", "maintenance").Logger(),
	}

	var checkoutLimiter *limiter.Limiter
	if infra.Redis != nil {
		checkoutLimiter, err = ratelimit.NewRedisLimiter(infra.Redis, "ratelimit:checkout", cfg.Checkout.RateLimit, cfg.Checkout.RateWindow)
		if err != nil {
			return nil, err
		}
	} else {
		checkoutLimiter = ratelimit.NewMemoryLimiter(cfg.Checkout.RateLimit, cfg.Checkout.RateWindow)
	}

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.MetricsEnabled && infra.Registry != nil {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), infra.Registry)
	}

	r := Router{
		Logger:      log,
		Auth:        auth.Middleware{Verifier: verifier},
		Idem:        common.Idem{R: infra.Redis, TTL: cfg.IdempotencyTTL},
		Metrics:     httpMetrics,
		Audit:       audit.Recorder{Log: log.With().Str("component", "audit").Logger()},
		Gatherer:    infra.Gatherer,
		CORSOrigins: cfg.CORSAllowedOrigins,
		HSTS:        cfg.IsProduction(),
		CheckoutLimit: ratelimit.Handler{
			Limiter: checkoutLimiter,
			Key:     ratelimit.ByUser("checkout"),
			OnError: func(err error) { log.Warn().Err(err).Msg("checkout rate limiter unavailable") },
		},
		Handlers: Handlers{
			Catalog:     &catalog.Handler{Svc: catalogSvc},
			Cart:        &cart.Handler{Svc: carts},
			Coupon:      &coupon.Handler{Svc: coupons},
			Checkout:    &checkout.Handler{Svc: checkoutSvc, Carts: carts},
			Order:       &order.Handler{Svc: orders},
			Maintenance: &maintenance.Handler{Svc: bulk},
			Health:      health.Handler{Probes: infra.Probes, Timeout: cfg.Obs.ReadyTimeout},
		},
	}

	return &App{
		Verifier:    verifier,
		Catalog:     catalogSvc,
		Carts:       carts,
		Coupons:     coupons,
		Checkout:    checkoutSvc,
		Orders:      orders,
		Maintenance: bulk,
		Bus:         bus,
		Handler:     r.Build(),
	}, nil
}

// notifiers picks how order events leave the process: asynq tasks when a
// queue is configured, inline email otherwise, plus Kafka when enabled.
func notifiers(cfg *config.Config, infra Infra) []events.Notifier {
	var dispatcher notify.Dispatcher
	if infra.Enqueuer != nil {
		dispatcher = notify.TaskDispatcher{Client: infra.Enqueuer, MaxRetry: 5}
	} else {
		mail := infra.Mail
		if mail == nil {
			mail = common.NopEmailSender{}
		}
		dispatcher = &notify.Mailer{
			Mail:    mail,
			Breaker: NewEmailBreaker(cfg, infra.Log),
			Enabled: cfg.Notify.EmailEnabled,
			Log:     infra.Log.With().Str("component", "notify").Logger(),
		}
	}
	out := []events.Notifier{notify.EventNotifier{Dispatcher: dispatcher}}
	if infra.Kafka != nil {
		out = append(out, &events.KafkaPublisher{Writer: infra.Kafka})
	}
	return out
}

// NewEmailBreaker guards the email provider with the configured thresholds.
func NewEmailBreaker(cfg *config.Config, log zerolog.Logger) *resilience.Breaker {
	threshold := cfg.Notify.BreakerThreshold
	if threshold < 1 {
		threshold = 1
	}
	return resilience.NewBreaker(resilience.BreakerConfig{
		Target:       "email",
		MinRequests:  uint32(threshold),
		FailureRatio: 0.5,
		OpenFor:      cfg.Notify.BreakerCooldown,
		Log:          log,
	})
}
