package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarketBrief/internal/service/finnhub"
	"MarketBrief/internal/service/marketdata"
	"MarketBrief/internal/service/ratelimit"
	"MarketBrief/internal/usecase"
	"MarketBrief/pkg/config"
	xhttp "MarketBrief/pkg/http"
	applogger "MarketBrief/pkg/logger"
)

type namedCloser struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	briefs     *usecase.BriefUseCase
	coord      *marketdata.Coordinator
	stream     *finnhub.Stream
	limiter    *ratelimit.Limiter
	sweepEvery time.Duration
	idleAfter  time.Duration
	closers    []namedCloser
}

// Option configures optional App parts.
type Option func(*App)

// WithStream starts s with the app. A nil stream is ignored.
func WithStream(s *finnhub.Stream) Option {
	return func(a *App) { a.stream = s }
}

// WithLimiter sweeps idle buckets from l every interval.
func WithLimiter(l *ratelimit.Limiter, every, idle time.Duration) Option {
	return func(a *App) {
		a.limiter = l
		a.sweepEvery = every
		a.idleAfter = idle
	}
}

// WithCloser closes c after everything else on shutdown.
func WithCloser(name string, c io.Closer) Option {
	return func(a *App) { a.closers = append(a.closers, namedCloser{name: name, c: c}) }
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	briefs *usecase.BriefUseCase,
	coord *marketdata.Coordinator,
	opts ...Option,
) *App {
	a := &App{
		cfg:        cfg,
		log:        l,
		httpServer: httpServer,
		briefs:     briefs,
		coord:      coord,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = applogger.Nop()
	}
	return a
}

// Run starts the application and blocks until ctx is done or a signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.stream != nil {
		a.stream.Start(ctx)
		a.log.Info("finnhub stream started", applogger.Strings("symbols", a.cfg.Sources.Finnhub.Stream.Symbols))
	}
	if a.limiter != nil && a.sweepEvery > 0 {
		go a.sweep(ctx)
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) sweep(ctx context.Context) {
	t := time.NewTicker(a.sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.limiter.Sweep(a.idleAfter); n > 0 {
				a.log.Debug("rate limiter swept", applogger.Int("buckets", n))
			}
		}
	}
}

// shutdown stops intake first, then drains sinks, then releases upstreams.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")
	var errs []error

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	// The collector may publish through the brief sink's producer.
	a.log.RemoveCollector()

	if a.briefs != nil {
		if err := a.briefs.Close(); err != nil {
			a.log.Warn("brief sinks close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.coord != nil {
		if err := a.coord.Close(); err != nil {
			a.log.Warn("market data close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("component", nc.name), applogger.Error(err))
			errs = append(errs, err)
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
