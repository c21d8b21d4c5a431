package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/app"
	"github.com/noah-isme/toko-checkout/internal/config"
	"github.com/noah-isme/toko-checkout/internal/db/migrations"
	"github.com/noah-isme/toko-checkout/internal/events"
	"github.com/noah-isme/toko-checkout/internal/health"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/repo"
	"github.com/noah-isme/toko-checkout/internal/repo/memory"
	"github.com/noah-isme/toko-checkout/internal/resilience"
)

const (
	serviceName     = "toko-checkout"
	shutdownTimeout = 15 * time.Second
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().
		Str("env", cfg.AppEnv).
		Str("component", "api").
		Logger()
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("api stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Endpoint:       cfg.Obs.OTLPEndpoint,
		Exporter:       cfg.Obs.TracingExporter,
		SamplingRatio:  cfg.Obs.SamplingRatio,
		Environment:    cfg.AppEnv,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer")
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, registry)
	resilience.MustRegisterMetrics(registry)

	infra := app.Infra{
		Registry: registry,
		Log:      logger,
		Probes:   map[string]health.Probe{},
	}
	if cfg.Obs.MetricsEnabled {
		infra.Gatherer = registry
	}

	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		infra.Store = memory.New()
	default:
		if cfg.RunMigrations {
			if err := migrations.Up(cfg.DatabaseURL); err != nil {
				return err
			}
			logger.Info().Msg("migrations applied")
		}
		pool, err := app.OpenPostgres(ctx, cfg.DatabaseURL, serviceName+"-api")
		if err != nil {
			return err
		}
		defer pool.Close()
		infra.Store = repo.NewPgxStore(pool)
		infra.Probes["postgres"] = pool.Ping
	}

	if cfg.RedisURL != "" {
		rdb, err := app.OpenRedis(ctx, cfg.RedisURL, cfg.Obs.MetricsEnabled)
		if err != nil {
			return err
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		infra.Redis = rdb
		infra.Probes["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

		opt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			return err
		}
		tasks := asynq.NewClient(opt)
		defer func() {
			if err := tasks.Close(); err != nil {
				logger.Error().Err(err).Msg("close task client")
			}
		}()
		infra.Enqueuer = tasks
	} else {
		logger.Warn().Msg("REDIS_URL not set; carts, idempotency and queued notifications are disabled")
	}

	if len(cfg.KafkaBrokers) > 0 {
		writer := events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error().Err(err).Msg("close kafka writer")
			}
		}()
		infra.Kafka = writer
	}

	a, err := app.New(cfg, infra)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           obs.ServerHandler(a.Handler, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	health.SetReady(false)
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
