package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/mfandino/area-assistant/internal/core/domain"
)

type Config struct {
	Name        string
	Threshold   uint32
	CallTimeout time.Duration
	ResetTime   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Name:        "upstream",
		Threshold:   3,
		CallTimeout: 30 * time.Second,
		ResetTime:   60 * time.Second,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.Name == "" {
		out.Name = def.Name
	}
	if out.Threshold == 0 {
		out.Threshold = def.Threshold
	}
	if out.CallTimeout <= 0 {
		out.CallTimeout = def.CallTimeout
	}
	if out.ResetTime <= 0 {
		out.ResetTime = def.ResetTime
	}
	return out
}

// Breaker wraps an upstream call with a consecutive-failure circuit
// breaker and a per-call timeout. After Threshold failures in a row the
// circuit opens and calls fail fast until ResetTime elapses; a single
// half-open trial then decides whether it closes again.
type Breaker[T any] struct {
	cfg     Config
	breaker *gobreaker.CircuitBreaker[T]
}

func NewBreaker[T any](cfg Config, logger *slog.Logger) *Breaker[T] {
	cfg = cfg.normalize()

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.ResetTime,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Threshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// A caller hanging up is not upstream ill health.
			return errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrClientGone)
		},
	}
	if logger != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		}
	}

	return &Breaker[T]{
		cfg:     cfg,
		breaker: gobreaker.NewCircuitBreaker[T](settings),
	}
}

func (b *Breaker[T]) Execute(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	result, err := b.breaker.Execute(func() (T, error) {
		callCtx, cancel := context.WithTimeout(ctx, b.cfg.CallTimeout)
		defer cancel()

		out, err := fn(callCtx)
		if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return out, domain.WrapError(b.cfg.Name, "call", domain.ErrUpstreamTimeout)
		}
		return out, err
	})
	if IsCircuitOpen(err) {
		var zero T
		return zero, domain.WrapError(b.cfg.Name, "call", domain.ErrBreakerOpen)
	}
	return result, err
}

func (b *Breaker[T]) State() string {
	return b.breaker.State().String()
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
