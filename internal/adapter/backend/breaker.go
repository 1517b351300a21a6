package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/radiance-dashboard/internal/domain"
	"github.com/couchcryptid/radiance-dashboard/internal/observability"
)

// BreakerSettings tunes the circuit breaker around the backend.
type BreakerSettings struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval after which closed-state counts reset.
	Interval time.Duration
	// Timeout spent open before probing again.
	Timeout time.Duration
	// ConsecutiveFailures that trip the breaker.
	ConsecutiveFailures uint32
}

// DefaultBreakerSettings returns the production breaker tuning.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Breaker guards a RadianceSource with a circuit breaker. Rejections from the
// backend (success=false, 4xx) and caller cancellations do not count as
// failures.
type Breaker struct {
	inner domain.RadianceSource
	cb    *gobreaker.CircuitBreaker[any]
}

// NewBreaker wraps inner.
func NewBreaker(inner domain.RadianceSource, s BreakerSettings, logger *slog.Logger, metrics *observability.Metrics) *Breaker {
	metrics.BreakerState.Set(float64(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "radiance-backend",
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.Set(float64(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsLogical(err) || errors.Is(err, context.Canceled)
		},
	})

	return &Breaker{inner: inner, cb: cb}
}

// State reports the breaker's current state.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("backend circuit: %w", err)
		}
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func (b *Breaker) Health(ctx context.Context) error {
	_, err := execute(b, func() (struct{}, error) {
		return struct{}{}, b.inner.Health(ctx)
	})
	return err
}

func (b *Breaker) Municipalities(ctx context.Context) ([]string, error) {
	return execute(b, func() ([]string, error) { return b.inner.Municipalities(ctx) })
}

func (b *Breaker) Years(ctx context.Context) ([]int, error) {
	return execute(b, func() ([]int, error) { return b.inner.Years(ctx) })
}

func (b *Breaker) MunicipalitySeries(ctx context.Context, name string, year *int) ([]domain.Record, error) {
	return execute(b, func() ([]domain.Record, error) { return b.inner.MunicipalitySeries(ctx, name, year) })
}

func (b *Breaker) Comparison(ctx context.Context, q domain.ComparisonQuery) ([]domain.RankEntry, error) {
	return execute(b, func() ([]domain.RankEntry, error) { return b.inner.Comparison(ctx, q) })
}

func (b *Breaker) Download(ctx context.Context, q domain.DownloadQuery) (domain.Export, error) {
	return execute(b, func() (domain.Export, error) { return b.inner.Download(ctx, q) })
}
