package llm

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/webpulse/webpulse/internal/domain"
	"github.com/webpulse/webpulse/internal/observability"
	"github.com/webpulse/webpulse/internal/resilience"
)

// ChainConfig tunes the fallback chain.
type ChainConfig struct {
	// AttemptTimeout bounds each single provider call. The same timeout
	// applies to every provider so ordering, not latency budget, decides
	// preference.
	AttemptTimeout time.Duration

	// RateLimitRPM caps outbound completion requests across all providers.
	RateLimitRPM int

	// BreakerCooldown is how long a tripped provider is skipped.
	BreakerCooldown time.Duration
}

// ProviderStats is a point-in-time snapshot of one provider's counters.
type ProviderStats struct {
	Requests  int64
	Successes int64
	Failures  int64
	LatencyMs int64
}

type chainEntry struct {
	provider Provider
	breaker  *resilience.Breaker

	requests  atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
	latencyMs atomic.Int64
}

// Chain tries providers in configured order and returns the first successful
// completion. Providers that keep failing are skipped while their breaker
// cools down. When every provider fails the chain returns an upstream error;
// callers supply their own deterministic fallbacks.
type Chain struct {
	entries []*chainEntry
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zap.Logger
}

// NewChain builds a chain over providers in preference order.
func NewChain(cfg ChainConfig, logger *zap.Logger, providers ...Provider) *Chain {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 12 * time.Second
	}
	if cfg.RateLimitRPM <= 0 {
		cfg.RateLimitRPM = 60
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	entries := make([]*chainEntry, 0, len(providers))
	for _, p := range providers {
		entries = append(entries, &chainEntry{
			provider: p,
			breaker: resilience.NewBreaker(resilience.Config{
				Name:     p.Name(),
				Cooldown: cfg.BreakerCooldown,
				OnStateChange: func(name string, from, to resilience.State) {
					logger.Warn("provider breaker state change",
						zap.String("provider", name),
						zap.Stringer("from", from),
						zap.Stringer("to", to))
				},
			}),
		})
	}

	return &Chain{
		entries: entries,
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitRPM)/60.0), 1),
		timeout: cfg.AttemptTimeout,
		logger:  logger,
	}
}

// Available reports whether the chain has at least one provider configured.
func (c *Chain) Available() bool {
	return c != nil && len(c.entries) > 0
}

// Complete walks the provider chain and returns the first successful
// completion. The error is an upstream DomainError when every provider fails
// or is skipped.
func (c *Chain) Complete(ctx context.Context, systemPrompt, userPrompt string) (Completion, error) {
	if !c.Available() {
		return Completion{}, domain.UpstreamError("llm", errNoProviders)
	}

	var lastErr error
	for _, e := range c.entries {
		if err := e.breaker.Allow(); err != nil {
			c.logger.Debug("skipping provider, breaker open",
				zap.String("provider", e.provider.Name()))
			lastErr = err
			continue
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return Completion{}, domain.UpstreamError("llm", err)
		}

		text, err := c.attempt(ctx, e, systemPrompt, userPrompt)
		if err == nil {
			if e.provider.Name() == StaticName {
				observability.GetMetrics().RecordStaticFallback()
			}
			return Completion{Text: text, Provider: e.provider.Name()}, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		c.logger.Warn("provider completion failed, falling through",
			zap.String("provider", e.provider.Name()),
			zap.Error(err))
	}

	return Completion{}, domain.UpstreamError("llm", lastErr)
}

func (c *Chain) attempt(ctx context.Context, e *chainEntry, systemPrompt, userPrompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	e.requests.Add(1)

	text, err := e.provider.Complete(attemptCtx, systemPrompt, userPrompt)
	elapsed := time.Since(start)
	e.latencyMs.Add(elapsed.Milliseconds())
	e.breaker.Record(err)

	if err != nil {
		e.failures.Add(1)
		observability.GetMetrics().RecordProviderRequest(e.provider.Name(), "error", elapsed)
		return "", err
	}
	e.successes.Add(1)
	observability.GetMetrics().RecordProviderRequest(e.provider.Name(), "success", elapsed)
	return text, nil
}

// CompleteInto completes and decodes a structured JSON response into out,
// requiring the named top-level keys. Returns the provider name on success.
func (c *Chain) CompleteInto(ctx context.Context, systemPrompt, userPrompt string, required []string, out any) (string, error) {
	comp, err := c.Complete(ctx, systemPrompt+jsonOnlyInstruction, userPrompt)
	if err != nil {
		return "", err
	}
	if !DecodeInto(comp.Text, required, out) {
		return "", domain.UpstreamError(comp.Provider, errMalformedResponse)
	}
	return comp.Provider, nil
}

// Stats returns per-provider counters keyed by provider name.
func (c *Chain) Stats() map[string]ProviderStats {
	stats := make(map[string]ProviderStats, len(c.entries))
	for _, e := range c.entries {
		stats[e.provider.Name()] = ProviderStats{
			Requests:  e.requests.Load(),
			Successes: e.successes.Load(),
			Failures:  e.failures.Load(),
			LatencyMs: e.latencyMs.Load(),
		}
	}
	return stats
}

const jsonOnlyInstruction = "\n\nReturn ONLY valid JSON. No markdown, no code fences, no prose."
