package oracle

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/docintel/internal/model"
	"github.com/sells-group/docintel/internal/resilience"
)

// LimitConfig bounds calls to a backing Oracle.
type LimitConfig struct {
	// MaxConcurrency caps in-flight calls across every caller. Zero means 1.
	MaxConcurrency int
	// RequestsPerSecond and Burst feed a token bucket. Zero disables it.
	RequestsPerSecond float64
	Burst             int
	// Timeout bounds a single call. Zero disables it.
	Timeout time.Duration
	// Breaker configures the circuit breaker around the backing oracle.
	Breaker resilience.BreakerConfig
}

// Limited shares one rate limit, concurrency cap and circuit breaker among
// every resolver using it. It never retries: a failed call is returned as is
// and the consensus vote absorbs it.
type Limited struct {
	next    Oracle
	sem     chan struct{}
	limiter *rate.Limiter
	timeout time.Duration
	breaker *resilience.Breaker
}

// NewLimited wraps next.
func NewLimited(next Oracle, cfg LimitConfig) *Limited {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "oracle"
	}
	l := &Limited{
		next:    next,
		sem:     make(chan struct{}, cfg.MaxConcurrency),
		timeout: cfg.Timeout,
		breaker: resilience.NewBreaker(cfg.Breaker),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := max(cfg.Burst, 1)
		l.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return l
}

// Ask waits for a slot and a rate token, then calls the backing oracle
// through the breaker.
func (l *Limited) Ask(ctx context.Context, question, text string) (model.RawAnswer, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return model.RawAnswer{}, eris.Wrap(ctx.Err(), "oracle: wait for slot")
	}
	defer func() { <-l.sem }()

	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return model.RawAnswer{}, eris.Wrap(err, "oracle: rate limit")
		}
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	return resilience.Call(ctx, l.breaker, func(ctx context.Context) (model.RawAnswer, error) {
		return l.next.Ask(ctx, question, text)
	})
}

// BreakerState reports the breaker state, for health checks.
func (l *Limited) BreakerState() resilience.State {
	return l.breaker.State()
}
