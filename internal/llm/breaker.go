package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Default circuit breaker settings.
const (
	defaultMaxFailures uint32        = 5
	defaultOpenTimeout time.Duration = 30 * time.Second
	defaultInterval    time.Duration = 60 * time.Second

	// One request per second with a small burst keeps a whole pipeline
	// run inside free-tier quotas.
	defaultRatePerSecond = 1
	defaultBurst         = 2
)

// GuardedClient wraps a Client with a circuit breaker and a rate
// limiter. When the model fails repeatedly the circuit opens and calls
// fail fast as unavailable, so agents drop to their rule-based paths
// without hammering a dead endpoint.
type GuardedClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker[string]
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewGuardedClient wraps inner with default breaker and limiter settings.
func NewGuardedClient(inner Client, logger *slog.Logger) *GuardedClient {
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1, // one probe in half-open state
		Interval:    defaultInterval,
		Timeout:     defaultOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= defaultMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// A missing key is a configuration state, not a model failure.
			return err == nil || IsUnavailable(err)
		},
	})

	return &GuardedClient{
		inner:   inner,
		breaker: cb,
		limiter: rate.NewLimiter(rate.Limit(defaultRatePerSecond), defaultBurst),
		logger:  logger,
	}
}

// Generate implements Client.
func (g *GuardedClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	out, err := g.breaker.Execute(func() (string, error) {
		return g.inner.Generate(ctx, system, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", Unavailable("llm circuit open")
		}
		return "", err
	}
	return out, nil
}

// State returns the current breaker state for monitoring.
func (g *GuardedClient) State() gobreaker.State {
	return g.breaker.State()
}

var _ Client = (*GuardedClient)(nil)
