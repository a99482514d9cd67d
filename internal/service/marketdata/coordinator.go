// Package marketdata fans out to price, news and calendar sources and degrades
// to labelled fallbacks instead of failing.
package marketdata

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/domain/repository"
	"MarketBrief/internal/service/breaker"
	"MarketBrief/internal/service/cache"
	"MarketBrief/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Source kinds.
const (
	KindPrice    = "price"
	KindNews     = "news"
	KindCalendar = "calendar"
)

type priceSource struct {
	src repository.PriceSource
	g   *Guarded[models.MarketDataSnapshot]
}

type newsSource struct {
	src repository.NewsSource
	g   *Guarded[[]models.NewsItem]
}

type calendarSource struct {
	src repository.CalendarSource
	g   *Guarded[[]models.CalendarEvent]
}

// Coordinator owns every guarded upstream. Build one per process.
type Coordinator struct {
	cfg     Config
	log     *logger.Logger
	metrics repository.Metrics
	now     func() time.Time
	cache   *cache.Layered

	prices    []priceSource
	news      []newsSource
	calendars []calendarSource
	closers   []io.Closer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithLogger(l *logger.Logger) Option { return func(c *Coordinator) { c.log = l } }

func WithMetrics(m repository.Metrics) Option { return func(c *Coordinator) { c.metrics = m } }

func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

// WithCache shares a layered cache (for example one backed by Redis).
func WithCache(l *cache.Layered) Option { return func(c *Coordinator) { c.cache = l } }

func WithPriceSources(s ...repository.PriceSource) Option {
	return func(c *Coordinator) { c.addPrice(s...) }
}

func WithNewsSources(s ...repository.NewsSource) Option {
	return func(c *Coordinator) { c.addNews(s...) }
}

func WithCalendarSources(s ...repository.CalendarSource) Option {
	return func(c *Coordinator) { c.addCalendar(s...) }
}

func (c *Coordinator) addPrice(s ...repository.PriceSource) {
	for _, src := range s {
		if src != nil {
			c.prices = append(c.prices, priceSource{src: src})
		}
	}
}

func (c *Coordinator) addNews(s ...repository.NewsSource) {
	for _, src := range s {
		if src != nil {
			c.news = append(c.news, newsSource{src: src})
		}
	}
}

func (c *Coordinator) addCalendar(s ...repository.CalendarSource) {
	for _, src := range s {
		if src != nil {
			c.calendars = append(c.calendars, calendarSource{src: src})
		}
	}
}

// NewCoordinator wraps every configured source in a Guarded call site.
func NewCoordinator(cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:     cfg.withDefaults(),
		log:     logger.Nop(),
		metrics: nopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = cache.NewLayered(cache.NewTTLCache(cache.WithClock(c.now)), nil)
	}

	guard := func(ttl, timeout time.Duration) GuardOptions {
		return GuardOptions{
			TTL: ttl, Timeout: timeout, Breaker: c.cfg.Breaker,
			Cache: c.cache, Metrics: c.metrics, Logger: c.log, Clock: c.now,
		}
	}
	for i := range c.prices {
		c.prices[i].g = NewGuarded[models.MarketDataSnapshot](KindPrice, c.prices[i].src.Name(), guard(c.cfg.PriceTTL, c.cfg.PriceTimeout))
		c.track(c.prices[i].src)
	}
	for i := range c.news {
		c.news[i].g = NewGuarded[[]models.NewsItem](KindNews, c.news[i].src.Name(), guard(c.cfg.NewsTTL, c.cfg.NewsTimeout))
		c.track(c.news[i].src)
	}
	for i := range c.calendars {
		c.calendars[i].g = NewGuarded[[]models.CalendarEvent](KindCalendar, c.calendars[i].src.Name(), guard(c.cfg.CalendarTTL, c.cfg.CalendarTimeout))
		c.track(c.calendars[i].src)
	}
	return c
}

func (c *Coordinator) track(src any) {
	if cl, ok := src.(io.Closer); ok {
		c.closers = append(c.closers, cl)
	}
}

// Request names what to fetch for one brief.
type Request struct {
	Symbol       string
	Type         models.InstrumentType
	NeedPrice    bool
	NeedNews     bool
	NeedCalendar bool
	Keywords     []string
	Currencies   []string
}

// Bundle is everything fetched for one brief.
type Bundle struct {
	Price  *models.MarketDataSnapshot
	News   []models.NewsItem
	Events []models.CalendarEvent
	Status []models.SourceStatus
}

// Fetch runs the requested lookups concurrently. Branches never fail, so one
// slow data type never cancels another.
func (c *Coordinator) Fetch(ctx context.Context, req Request) Bundle {
	var (
		out                     Bundle
		priceStatus, newsStatus []models.SourceStatus
		calendarStatus          []models.SourceStatus
	)
	g, gctx := errgroup.WithContext(ctx)

	if req.NeedPrice && req.Symbol != "" {
		g.Go(func() error {
			snap, st := c.FetchPrice(gctx, req.Symbol, req.Type)
			out.Price, priceStatus = &snap, st
			return nil
		})
	}
	if req.NeedNews {
		g.Go(func() error {
			out.News, newsStatus = c.FetchNews(gctx, repository.NewsQuery{
				Symbol: req.Symbol, Keywords: req.Keywords, Limit: c.cfg.NewsLimit,
			})
			return nil
		})
	}
	if req.NeedCalendar {
		g.Go(func() error {
			now := c.now()
			out.Events, calendarStatus = c.FetchCalendar(gctx, repository.CalendarQuery{
				From: now.Add(-c.cfg.CalendarLookback), To: now.Add(c.cfg.CalendarLookahead), Currencies: req.Currencies,
			})
			return nil
		})
	}
	_ = g.Wait()

	out.Status = append(out.Status, priceStatus...)
	out.Status = append(out.Status, newsStatus...)
	out.Status = append(out.Status, calendarStatus...)
	return out
}

// FetchPrice queries every source that supports t and keeps the best-ranked success.
// With no success it returns a zero-price snapshot labelled after the top-ranked failure.
func (c *Coordinator) FetchPrice(ctx context.Context, symbol string, t models.InstrumentType) (models.MarketDataSnapshot, []models.SourceStatus) {
	symbol = strings.ToUpper(symbol)
	eligible := c.eligible(t)
	if len(eligible) == 0 {
		return models.FallbackSnapshot(symbol, models.SourceNoData, c.now()), nil
	}

	results := make([]Result[models.MarketDataSnapshot], len(eligible))
	var wg sync.WaitGroup
	for i, ps := range eligible {
		wg.Add(1)
		go func(i int, ps priceSource) {
			defer wg.Done()
			results[i] = ps.g.Do(ctx, symbol, func(ctx context.Context) (models.MarketDataSnapshot, error) {
				return ps.src.Quote(ctx, symbol)
			})
		}(i, ps)
	}
	wg.Wait()

	status := make([]models.SourceStatus, len(results))
	best := -1
	for i, r := range results {
		status[i] = r.Status()
		if !r.OK() || !r.Value.HasPrice() {
			if r.OK() {
				status[i].OK = false
				status[i].Fallback = models.SourceNoData
			}
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		rb, ri := c.rank(t, results[best].Source), c.rank(t, r.Source)
		if ri < rb || ri == rb && r.Value.Timestamp.After(results[best].Value.Timestamp) {
			best = i
		}
	}

	if best < 0 {
		label := status[0].Fallback
		if label == "" {
			label = models.SourceNoData
		}
		return models.FallbackSnapshot(symbol, label, c.now()), status
	}
	snap := results[best].Value
	snap.Symbol = symbol
	snap.Source = results[best].Source
	snap.Cached = results[best].Cached
	return snap, status
}

// eligible returns the sources supporting t ordered by rank. Ties keep registration order.
func (c *Coordinator) eligible(t models.InstrumentType) []priceSource {
	var out []priceSource
	for _, ps := range c.prices {
		if ps.src.Supports(t) {
			out = append(out, ps)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return c.rank(t, out[i].src.Name()) < c.rank(t, out[j].src.Name())
	})
	return out
}

func (c *Coordinator) rank(t models.InstrumentType, source string) int {
	order := c.cfg.Priority[t]
	for i, name := range order {
		if name == source {
			return i
		}
	}
	return len(order)
}

// FetchNews merges headlines from every news source, newest first.
func (c *Coordinator) FetchNews(ctx context.Context, q repository.NewsQuery) ([]models.NewsItem, []models.SourceStatus) {
	if q.Limit <= 0 {
		q.Limit = c.cfg.NewsLimit
	}
	key := strings.ToUpper(q.Symbol) + "|" + strings.Join(q.Keywords, ",")
	results := make([]Result[[]models.NewsItem], len(c.news))
	var wg sync.WaitGroup
	for i, ns := range c.news {
		wg.Add(1)
		go func(i int, ns newsSource) {
			defer wg.Done()
			results[i] = ns.g.Do(ctx, key, func(ctx context.Context) ([]models.NewsItem, error) {
				return ns.src.News(ctx, q)
			})
		}(i, ns)
	}
	wg.Wait()

	var merged []models.NewsItem
	status := make([]models.SourceStatus, len(results))
	for i, r := range results {
		status[i] = r.Status()
		if r.OK() {
			merged = append(merged, r.Value...)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].PublishedAt.After(merged[j].PublishedAt) })
	if len(merged) > q.Limit {
		merged = merged[:q.Limit]
	}
	return merged, status
}

// FetchCalendar merges events from every calendar source in time order.
func (c *Coordinator) FetchCalendar(ctx context.Context, q repository.CalendarQuery) ([]models.CalendarEvent, []models.SourceStatus) {
	key := q.From.UTC().Truncate(time.Hour).Format(time.RFC3339) + "|" +
		q.To.UTC().Truncate(time.Hour).Format(time.RFC3339) + "|" + strings.Join(q.Currencies, ",")
	results := make([]Result[[]models.CalendarEvent], len(c.calendars))
	var wg sync.WaitGroup
	for i, cs := range c.calendars {
		wg.Add(1)
		go func(i int, cs calendarSource) {
			defer wg.Done()
			results[i] = cs.g.Do(ctx, key, func(ctx context.Context) ([]models.CalendarEvent, error) {
				return cs.src.Events(ctx, q)
			})
		}(i, cs)
	}
	wg.Wait()

	var merged []models.CalendarEvent
	status := make([]models.SourceStatus, len(results))
	for i, r := range results {
		status[i] = r.Status()
		if !r.OK() {
			continue
		}
		for _, e := range r.Value {
			if inWindow(e, q) {
				merged = append(merged, e)
			}
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Time.Before(merged[j].Time) })
	if len(merged) > c.cfg.CalendarLimit {
		merged = merged[:c.cfg.CalendarLimit]
	}
	return merged, status
}

func inWindow(e models.CalendarEvent, q repository.CalendarQuery) bool {
	if !q.From.IsZero() && e.Time.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && e.Time.After(q.To) {
		return false
	}
	if len(q.Currencies) == 0 {
		return true
	}
	for _, cur := range q.Currencies {
		if strings.EqualFold(cur, e.Currency) {
			return true
		}
	}
	return false
}

// BreakerStates snapshots every guarded source.
func (c *Coordinator) BreakerStates() []SourceState {
	var out []SourceState
	for _, ps := range c.prices {
		out = append(out, SourceState{Kind: KindPrice, Snapshot: ps.g.Breaker().Snapshot()})
	}
	for _, ns := range c.news {
		out = append(out, SourceState{Kind: KindNews, Snapshot: ns.g.Breaker().Snapshot()})
	}
	for _, cs := range c.calendars {
		out = append(out, SourceState{Kind: KindCalendar, Snapshot: cs.g.Breaker().Snapshot()})
	}
	return out
}

// SourceState is one guarded source's breaker view.
type SourceState struct {
	Kind string `json:"kind"`
	breaker.Snapshot
}

// Close releases sources holding connections.
func (c *Coordinator) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
