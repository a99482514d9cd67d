package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/domain/repository"
	"MarketBrief/internal/service/breaker"
	"MarketBrief/internal/service/cache"
	"MarketBrief/internal/service/ratelimit"
	"MarketBrief/pkg/logger"
)

// Result outcome labels used in metrics.
const (
	outcomeOK          = "ok"
	outcomeCached      = "cached"
	outcomeTimeout     = "timeout"
	outcomeError       = "error"
	outcomeCircuitOpen = "circuit_open"
	outcomeThrottled   = "throttled"
	outcomeCancelled   = "cancelled"
)

// Result is the outcome of one guarded call. Err is informational; callers
// inspect Fallback instead of failing.
type Result[T any] struct {
	Value       T
	Source      string
	Kind        string
	Cached      bool
	CircuitOpen bool
	Fallback    string
	Err         error
	Latency     time.Duration
}

// OK reports whether Value came from the adapter or the cache.
func (r Result[T]) OK() bool { return r.Err == nil }

// Status converts the result to the reported per-source status.
func (r Result[T]) Status() models.SourceStatus {
	s := models.SourceStatus{
		Source:      r.Source,
		Kind:        r.Kind,
		OK:          r.OK(),
		Cached:      r.Cached,
		CircuitOpen: r.CircuitOpen,
		Fallback:    r.Fallback,
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	return s
}

// Guarded wraps one adapter call with a TTL cache, a circuit breaker and a timeout.
type Guarded[T any] struct {
	name    string
	kind    string
	ttl     time.Duration
	timeout time.Duration
	cache   *cache.Layered
	breaker *breaker.Breaker
	metrics repository.Metrics
	log     *logger.Logger
}

// GuardOptions carries the collaborators shared by guarded sources.
type GuardOptions struct {
	TTL     time.Duration
	Timeout time.Duration
	Breaker breaker.Config
	Cache   *cache.Layered
	Metrics repository.Metrics
	Logger  *logger.Logger
	Clock   func() time.Time
}

// NewGuarded builds a guarded call site for the named source.
func NewGuarded[T any](kind, name string, o GuardOptions) *Guarded[T] {
	if o.Cache == nil {
		o.Cache = cache.NewLayered(nil, nil)
	}
	if o.Metrics == nil {
		o.Metrics = nopMetrics{}
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	log := o.Logger.With(logger.String("source", name), logger.String("kind", kind))
	metrics := o.Metrics
	b := breaker.New(name, o.Breaker,
		breaker.WithClock(o.Clock),
		breaker.WithOnStateChange(func(source string, from, to breaker.State) {
			log.Warn("circuit breaker transition",
				logger.String("from", string(from)), logger.String("to", string(to)))
			metrics.RecordBreakerState(source, to.Level())
		}),
	)
	return &Guarded[T]{
		name:    name,
		kind:    kind,
		ttl:     o.TTL,
		timeout: o.Timeout,
		cache:   o.Cache,
		breaker: b,
		metrics: metrics,
		log:     log,
	}
}

// Name returns the source name.
func (g *Guarded[T]) Name() string { return g.name }

// Breaker exposes the source's breaker for status reporting.
func (g *Guarded[T]) Breaker() *breaker.Breaker { return g.breaker }

// Do returns a cached value for key or calls fn under the breaker and timeout.
// It never returns an error or panics.
func (g *Guarded[T]) Do(ctx context.Context, key string, fn func(ctx context.Context) (T, error)) Result[T] {
	res := Result[T]{Source: g.name, Kind: g.kind}
	cacheKey := g.kind + ":" + g.name + ":" + key

	if v, err := cache.Get[T](ctx, g.cache, cacheKey, g.ttl); err == nil {
		res.Value, res.Cached = v, true
		g.metrics.RecordSourceResult(g.kind, g.name, outcomeCached)
		return res
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		g.log.Debug("cache read failed", logger.Error(err))
	}

	if err := g.breaker.Allow(); err != nil {
		res.CircuitOpen, res.Fallback, res.Err = true, models.SourceCircuitOpen, err
		g.metrics.RecordSourceResult(g.kind, g.name, outcomeCircuitOpen)
		return res
	}

	start := time.Now()
	v, err := g.call(ctx, fn)
	res.Latency = time.Since(start)
	g.metrics.RecordSourceLatency(g.kind, g.name, res.Latency.Seconds())

	if err != nil {
		res.Err = err
		res.Fallback = models.SourceErrorFallback
		if errors.Is(err, context.DeadlineExceeded) {
			res.Fallback = models.SourceTimeoutFallback
		}
		switch {
		case ctx.Err() != nil:
			// The caller gave up; says nothing about the upstream.
			g.breaker.Release()
			g.metrics.RecordSourceResult(g.kind, g.name, outcomeCancelled)
			return res
		case errors.Is(err, ratelimit.ErrThrottled):
			g.breaker.Release()
			g.metrics.RecordSourceResult(g.kind, g.name, outcomeThrottled)
			g.log.Debug("source throttled locally", logger.String("key", key))
			return res
		}
		g.breaker.Failure()
		if res.Fallback == models.SourceTimeoutFallback {
			g.metrics.RecordSourceResult(g.kind, g.name, outcomeTimeout)
		} else {
			g.metrics.RecordSourceResult(g.kind, g.name, outcomeError)
		}
		g.log.Warn("source call failed", logger.Error(err), logger.String("key", key),
			logger.Duration("latency_ms", res.Latency))
		return res
	}

	g.breaker.Success()
	res.Value = v
	g.metrics.RecordSourceResult(g.kind, g.name, outcomeOK)
	if err := cache.Set(ctx, g.cache, cacheKey, v, g.ttl); err != nil {
		g.log.Debug("cache write failed", logger.Error(err))
	}
	return res
}

type callResult[T any] struct {
	v   T
	err error
}

// call runs fn with the per-source timeout. A slow adapter is abandoned, not waited for.
func (g *Guarded[T]) call(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan callResult[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult[T]{err: fmt.Errorf("%s panicked: %v", g.name, r)}
			}
		}()
		v, err := fn(ctx)
		done <- callResult[T]{v: v, err: err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%s: %w", g.name, ctx.Err())
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordSourceResult(string, string, string)   {}
func (nopMetrics) RecordSourceLatency(string, string, float64) {}
func (nopMetrics) RecordBreakerState(string, int)              {}
func (nopMetrics) RecordBrief(string, float64)                 {}
func (nopMetrics) RecordIntent(string)                         {}
func (nopMetrics) RecordWarning(string)                        {}
func (nopMetrics) RecordSinkError(string)                      {}
