package resilience

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrOpenCircuit is returned when the breaker refuses a call.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// BreakerConfig tunes a Breaker. Zero values fall back to defaults.
type BreakerConfig struct {
	// Target labels metrics and log lines, e.g. "email".
	Target string
	// MinRequests is the number of calls observed before the ratio is judged.
	MinRequests  uint32
	FailureRatio float64
	// OpenFor is how long the breaker stays open before a half-open probe.
	OpenFor time.Duration
	Log     zerolog.Logger
}

// Breaker guards an outbound dependency such as the SMTP relay.
type Breaker struct {
	target string
	cb     *gobreaker.CircuitBreaker[struct{}]
}

// NewBreaker builds a failure-ratio breaker. A single half-open probe decides
// whether the breaker closes again.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 1
	}
	if cfg.FailureRatio <= 0 || cfg.FailureRatio > 1 {
		cfg.FailureRatio = 0.5
	}
	if cfg.OpenFor <= 0 {
		cfg.OpenFor = 30 * time.Second
	}
	target := strings.TrimSpace(cfg.Target)
	if target == "" {
		target = "default"
	}
	log := cfg.Log
	b := &Breaker{target: target}
	b.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        target,
		MaxRequests: 1,
		Interval:    2 * cfg.OpenFor,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < cfg.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			recordTransition(name, from, to)
			log.Info().Str("target", name).Str("from_state", from.String()).Str("to_state", to.String()).Msg("breaker_transition")
		},
	})
	breakerState.WithLabelValues(target).Set(stateValue(gobreaker.StateClosed))
	return b
}

// Do runs fn unless the breaker is open. Errors matched by ignore are
// returned to the caller but count as successes. A nil Breaker runs fn
// directly.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error, ignore ...func(error) bool) error {
	if b == nil {
		return fn(ctx)
	}
	var callErr error
	_, err := b.cb.Execute(func() (struct{}, error) {
		callErr = fn(ctx)
		for _, skip := range ignore {
			if callErr != nil && skip != nil && skip(callErr) {
				return struct{}{}, nil
			}
		}
		return struct{}{}, callErr
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		breakerRejected.WithLabelValues(b.target).Inc()
		return ErrOpenCircuit
	}
	return callErr
}

// State reports "closed", "open" or "half-open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return -1
	}
}
