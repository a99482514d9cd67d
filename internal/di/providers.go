package di

import (
	"context"
	"fmt"
	"time"

	"MarketBrief/internal/domain/repository"
	"MarketBrief/internal/handler/api"
	internalrepo "MarketBrief/internal/repository"
	"MarketBrief/internal/service/cache"
	"MarketBrief/internal/service/finnhub"
	"MarketBrief/internal/service/forexfactory"
	"MarketBrief/internal/service/googlenews"
	"MarketBrief/internal/service/marketdata"
	"MarketBrief/internal/service/ratelimit"
	"MarketBrief/internal/service/twelvedata"
	"MarketBrief/internal/service/yahoo"
	"MarketBrief/internal/services/catalyst"
	"MarketBrief/internal/usecase"
	pkgch "MarketBrief/pkg/clickhouse"
	"MarketBrief/pkg/config"
	xhttp "MarketBrief/pkg/http"
	"MarketBrief/pkg/http/middleware"
	pkgkafka "MarketBrief/pkg/kafka"
	"MarketBrief/pkg/logger"
	"MarketBrief/pkg/metrics"
	"MarketBrief/pkg/server"
)

// ProvideLogger creates the structured logger from the log section. With a
// producer and the collector enabled, error digests are published to Kafka;
// child loggers share the collector, so it is attached here.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, error) {
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.LogCollector.Enabled && producer != nil {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   cfg.LogCollector.Interval,
			CountThreshold: cfg.LogCollector.Threshold,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
			IncludeWarn:    cfg.LogCollector.IncludeWarn,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisCache connects the shared L2 cache. It returns nil when Redis is
// disabled or unreachable; the service then runs with the in-process cache only.
func ProvideRedisCache(cfg *config.Config, l *logger.Logger) *cache.RedisCache {
	if !cfg.Cache.Redis.Enabled {
		return nil
	}
	rc := cache.NewRedisCache(cfg.Cache.Redis.RedisConfig)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		l.Warn("redis unavailable, using in-process cache only",
			logger.String("addr", cfg.Cache.Redis.Addr), logger.Error(err))
		_ = rc.Close()
		return nil
	}
	l.Info("redis cache connected", logger.String("addr", cfg.Cache.Redis.Addr))
	return rc
}

// ProvideCache builds the layered source cache.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) *cache.Layered {
	l1 := cache.NewTTLCache(cache.WithMaxSize(cfg.Cache.MaxEntries))
	if rc == nil {
		return cache.NewLayered(l1, nil)
	}
	return cache.NewLayered(l1, rc)
}

// ProvideFinnhubStream creates the crypto trade stream, or nil when disabled.
func ProvideFinnhubStream(cfg *config.Config, l *logger.Logger) *finnhub.Stream {
	fc := cfg.Sources.Finnhub
	if !fc.Enabled || !fc.Stream.Enabled {
		return nil
	}
	return finnhub.NewStream(fc.APIKey, fc.Stream, l.With(logger.String("source", finnhub.StreamName)))
}

// ProvideCoordinator wraps every enabled adapter behind the breaker and cache.
func ProvideCoordinator(
	cfg *config.Config,
	l *logger.Logger,
	m repository.Metrics,
	c *cache.Layered,
	stream *finnhub.Stream,
) *marketdata.Coordinator {
	var (
		prices    []repository.PriceSource
		news      []repository.NewsSource
		calendars []repository.CalendarSource
	)
	src := cfg.Sources
	if stream != nil {
		prices = append(prices, stream)
	}
	if src.TwelveData.Enabled {
		prices = append(prices, twelvedata.New(src.TwelveData))
	}
	if src.Yahoo.Enabled {
		prices = append(prices, yahoo.New(src.Yahoo))
	}
	if src.Finnhub.Enabled {
		fh := finnhub.New(src.Finnhub)
		prices = append(prices, fh)
		news = append(news, fh)
		calendars = append(calendars, fh)
	}
	if src.GoogleNews.Enabled {
		news = append(news, googlenews.New(src.GoogleNews))
	}
	if src.ForexFactory.Enabled {
		calendars = append(calendars, forexfactory.New(src.ForexFactory))
	}

	l.Info("market data sources configured",
		logger.Int("price", len(prices)),
		logger.Int("news", len(news)),
		logger.Int("calendar", len(calendars)),
		logger.Bool("l2_cache", c.HasL2()),
	)
	return marketdata.NewCoordinator(cfg.Fetch,
		marketdata.WithLogger(l),
		marketdata.WithMetrics(m),
		marketdata.WithCache(c),
		marketdata.WithPriceSources(prices...),
		marketdata.WithNewsSources(news...),
		marketdata.WithCalendarSources(calendars...),
	)
}

// ProvideRanker creates the catalyst ranker from the scoring table.
func ProvideRanker(cfg *config.Config) *catalyst.Ranker {
	return catalyst.NewRanker(cfg.Scoring)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(cfg.Kafka.Options()...)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideBriefStore connects ClickHouse and creates the briefs table, or
// returns nil when ClickHouse is disabled.
func ProvideBriefStore(cfg *config.Config, l *logger.Logger) (*internalrepo.CHBriefStore, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx, cfg.ClickHouse.Options()...)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if err := client.InitSchema(ctx, internalrepo.BriefSchema(cfg.ClickHouse.Database, cfg.ClickHouse.RetentionDay)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	store := internalrepo.NewCHBriefStore(client.DB(), cfg.ClickHouse.Database, client.Close)
	store.SetLogger(l.With(logger.String("sink", "clickhouse")))
	l.Info("clickhouse brief store ready", logger.String("db", cfg.ClickHouse.Database))
	return store, nil
}

// ProvideBriefSinks lists the configured brief sinks.
func ProvideBriefSinks(cfg *config.Config, producer *pkgkafka.Producer, store *internalrepo.CHBriefStore) []repository.BriefSink {
	var sinks []repository.BriefSink
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaBriefSink(producer, cfg.Kafka.BriefTopic))
	}
	if store != nil {
		sinks = append(sinks, store)
	}
	return sinks
}

// ProvideBriefUseCase creates the brief pipeline.
func ProvideBriefUseCase(
	cfg *config.Config,
	coord *marketdata.Coordinator,
	ranker *catalyst.Ranker,
	sinks []repository.BriefSink,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.BriefUseCase {
	return usecase.NewBriefUseCase(coord, ranker,
		usecase.WithBriefSinks(sinks...),
		usecase.WithBriefMetrics(m),
		usecase.WithBriefLogger(l),
		usecase.WithSinkTimeout(cfg.Brief.SinkTimeout),
	)
}

// ProvideLimiter creates the per-client token buckets.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideBriefHandler creates the HTTP handler. History is served only when ClickHouse is on.
func ProvideBriefHandler(
	l *logger.Logger,
	uc *usecase.BriefUseCase,
	coord *marketdata.Coordinator,
	store *internalrepo.CHBriefStore,
) *api.BriefEchoHandler {
	var history repository.BriefHistory
	if store != nil {
		history = store
	}
	return api.NewBriefEchoHandler(l, uc, coord, history)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.BriefEchoHandler, l *logger.Logger, limiter *ratelimit.Limiter) *xhttp.Server {
	s := cfg.Server
	return xhttp.NewServer(h,
		xhttp.WithHost(s.Host),
		xhttp.WithPort(s.Port),
		xhttp.WithTimeouts(s.ReadTimeout, s.WriteTimeout, s.ShutdownTimeout),
		xhttp.WithCORS(s.CORS, s.CORSOrigins...),
		xhttp.WithLogger(l),
		xhttp.WithRateLimit(limiter, middleware.RateLimitConfig{
			Burst:        s.RateLimit.Burst,
			RefillPerSec: s.RateLimit.RefillPerSec,
			Skip:         []string{"/healthz", "/metrics"},
		}),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	httpServer *xhttp.Server,
	uc *usecase.BriefUseCase,
	coord *marketdata.Coordinator,
	stream *finnhub.Stream,
	limiter *ratelimit.Limiter,
	rc *cache.RedisCache,
) *server.App {
	opts := []server.Option{
		server.WithStream(stream),
		server.WithLimiter(limiter, cfg.Server.RateLimit.SweepEvery, cfg.Server.RateLimit.IdleAfter),
	}
	if rc != nil {
		opts = append(opts, server.WithCloser("redis", rc))
	}
	return server.New(cfg, l, httpServer, uc, coord, opts...)
}

// ProvideBriefPipeline creates a standalone brief use case for one-shot callers
// such as the CLI. The cleanup drains sinks and releases upstreams.
func ProvideBriefPipeline(
	cfg *config.Config,
	coord *marketdata.Coordinator,
	ranker *catalyst.Ranker,
	sinks []repository.BriefSink,
	m repository.Metrics,
	l *logger.Logger,
	rc *cache.RedisCache,
) (*usecase.BriefUseCase, func(), error) {
	uc := ProvideBriefUseCase(cfg, coord, ranker, sinks, m, l)
	cleanup := func() {
		l.RemoveCollector()
		if err := uc.Close(); err != nil {
			l.Warn("brief sinks close error", logger.Error(err))
		}
		if err := coord.Close(); err != nil {
			l.Warn("market data close error", logger.Error(err))
		}
		if rc != nil {
			_ = rc.Close()
		}
	}
	return uc, cleanup, nil
}
