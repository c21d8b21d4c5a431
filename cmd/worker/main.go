package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/app"
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/config"
	"github.com/noah-isme/toko-checkout/internal/notify"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().
		Str("env", cfg.AppEnv).
		Str("component", "worker").
		Logger()
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, prometheus.DefaultRegisterer)
	resilience.MustRegisterMetrics(prometheus.DefaultRegisterer)

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return err
	}

	var sender common.EmailSender = notify.LogSender{Log: logger}
	if cfg.Notify.SMTPAddr != "" {
		sender = common.SMTPSender{
			Addr:     cfg.Notify.SMTPAddr,
			From:     cfg.Notify.EmailFrom,
			Username: cfg.Notify.SMTPUsername,
			Password: cfg.Notify.SMTPPassword,
		}
	}
	mailer := &notify.Mailer{
		Mail:    sender,
		Breaker: app.NewEmailBreaker(cfg, logger),
		Enabled: cfg.Notify.EmailEnabled,
		Log:     logger,
	}

	mux := asynq.NewServeMux()
	mailer.Register(mux)

	onError := asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		logger.Warn().Err(err).Str("task", task.Type()).Int("retried", retried).Msg("task failed")
	})
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:  cfg.Notify.WorkerConcurrency,
		Logger:       asynqLogger{logger},
		ErrorHandler: onError,
	})
	if err := srv.Start(mux); err != nil {
		return err
	}
	logger.Info().Int("concurrency", cfg.Notify.WorkerConcurrency).Msg("worker started")

	<-ctx.Done()
	logger.Info().Msg("worker shutting down")
	srv.Shutdown()
	return nil
}

// asynqLogger routes asynq's own logging through zerolog.
type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...any) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...any)  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...any)  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...any) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...any) { l.log.Fatal().Msg(fmt.Sprint(args...)) }
