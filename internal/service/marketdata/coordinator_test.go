package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/domain/repository"
	"MarketBrief/internal/service/breaker"
	"MarketBrief/internal/service/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2024, 1, 2, 14, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakePrice struct {
	name  string
	types []models.InstrumentType
	price float64
	ts    time.Time
	delay time.Duration
	err   error
	panic bool
	calls atomic.Int32
}

func (f *fakePrice) Name() string { return f.name }

func (f *fakePrice) Supports(t models.InstrumentType) bool {
	if len(f.types) == 0 {
		return true
	}
	for _, x := range f.types {
		if x == t {
			return true
		}
	}
	return false
}

func (f *fakePrice) Quote(ctx context.Context, symbol string) (models.MarketDataSnapshot, error) {
	f.calls.Add(1)
	if f.panic {
		panic("boom")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return models.MarketDataSnapshot{}, ctx.Err()
		}
	}
	if f.err != nil {
		return models.MarketDataSnapshot{}, f.err
	}
	return models.MarketDataSnapshot{Symbol: symbol, Price: f.price, Timestamp: f.ts, Source: f.name}, nil
}

type fakeNews struct {
	name  string
	items []models.NewsItem
	err   error
}

func (f *fakeNews) Name() string { return f.name }

func (f *fakeNews) News(context.Context, repository.NewsQuery) ([]models.NewsItem, error) {
	return f.items, f.err
}

type fakeCalendar struct {
	events []models.CalendarEvent
}

func (f *fakeCalendar) Name() string { return "calendar" }

func (f *fakeCalendar) Events(context.Context, repository.CalendarQuery) ([]models.CalendarEvent, error) {
	return f.events, nil
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.PriceTimeout = 50 * time.Millisecond
	cfg.NewsTimeout = 50 * time.Millisecond
	cfg.CalendarTimeout = 50 * time.Millisecond
	return cfg
}

func TestFetchPriceTimeoutFallback(t *testing.T) {
	slow := &fakePrice{name: SourceTwelveData, price: 2650, delay: time.Second}
	c := NewCoordinator(fastConfig(), WithPriceSources(slow))

	snap, status := c.FetchPrice(context.Background(), "xauusd", models.InstrumentPreciousMetal)
	assert.Equal(t, 0.0, snap.Price)
	assert.Equal(t, models.SourceTimeoutFallback, snap.Source)
	assert.Equal(t, "XAUUSD", snap.Symbol)
	assert.True(t, snap.IsFallback())
	require.Len(t, status, 1)
	assert.False(t, status[0].OK)
	assert.Equal(t, models.SourceTimeoutFallback, status[0].Fallback)
}

func TestFetchPriceErrorAndPanicFallback(t *testing.T) {
	bad := &fakePrice{name: "bad", err: errors.New("502")}
	c := NewCoordinator(fastConfig(), WithPriceSources(bad))
	snap, _ := c.FetchPrice(context.Background(), "EURUSD", models.InstrumentForex)
	assert.Equal(t, models.SourceErrorFallback, snap.Source)

	crashing := &fakePrice{name: "crash", panic: true}
	c = NewCoordinator(fastConfig(), WithPriceSources(crashing))
	snap, status := c.FetchPrice(context.Background(), "EURUSD", models.InstrumentForex)
	assert.Equal(t, models.SourceErrorFallback, snap.Source)
	assert.Contains(t, status[0].Error, "panicked")
}

func TestFetchPriceBreakerShortCircuits(t *testing.T) {
	clk := newClock()
	bad := &fakePrice{name: SourceFinnhub, err: errors.New("down")}
	c := NewCoordinator(fastConfig(), WithPriceSources(bad), WithClock(clk.Now))

	for i := 0; i < 3; i++ {
		c.FetchPrice(context.Background(), "EURUSD", models.InstrumentForex)
	}
	require.Equal(t, int32(3), bad.calls.Load())

	snap, status := c.FetchPrice(context.Background(), "EURUSD", models.InstrumentForex)
	assert.Equal(t, int32(3), bad.calls.Load(), "open circuit must not call the adapter")
	assert.Equal(t, models.SourceCircuitOpen, snap.Source)
	assert.True(t, snap.CircuitOpen)
	assert.True(t, status[0].CircuitOpen)

	states := c.BreakerStates()
	require.Len(t, states, 1)
	assert.Equal(t, breaker.Open, states[0].State)

	bad.err = nil
	bad.price = 1.08
	clk.Advance(30 * time.Second)
	snap, _ = c.FetchPrice(context.Background(), "EURUSD", models.InstrumentForex)
	assert.Equal(t, 1.08, snap.Price)
	assert.Equal(t, breaker.HalfOpen, c.BreakerStates()[0].State)
}

func TestFetchPriceCallerCancelDoesNotTrip(t *testing.T) {
	cfg := fastConfig()
	cfg.PriceTimeout = time.Second
	healthy := &fakePrice{name: SourceTwelveData, price: 2650, delay: 200 * time.Millisecond}
	c := NewCoordinator(cfg, WithPriceSources(healthy))

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		snap, _ := c.FetchPrice(ctx, "XAUUSD", models.InstrumentPreciousMetal)
		cancel()
		assert.Equal(t, 0.0, snap.Price)
	}
	assert.Equal(t, breaker.Closed, c.BreakerStates()[0].State)

	snap, _ := c.FetchPrice(context.Background(), "XAUUSD", models.InstrumentPreciousMetal)
	assert.Equal(t, 2650.0, snap.Price)
	assert.Equal(t, int32(4), healthy.calls.Load())
}

func TestFetchPriceThrottleDoesNotTrip(t *testing.T) {
	throttled := &fakePrice{name: SourceTwelveData, err: fmt.Errorf("twelvedata: %w", ratelimit.ErrThrottled)}
	c := NewCoordinator(fastConfig(), WithPriceSources(throttled))

	for i := 0; i < 5; i++ {
		snap, status := c.FetchPrice(context.Background(), "EURUSD", models.InstrumentForex)
		assert.Equal(t, models.SourceErrorFallback, snap.Source)
		assert.False(t, status[0].CircuitOpen)
	}
	assert.Equal(t, int32(5), throttled.calls.Load())
	assert.Equal(t, breaker.Closed, c.BreakerStates()[0].State)
}

func TestFetchPricePriority(t *testing.T) {
	clk := newClock()
	now := clk.Now()
	yahoo := &fakePrice{name: SourceYahoo, price: 2661.5, ts: now}
	twelve := &fakePrice{name: SourceTwelveData, price: 2650.2, ts: now.Add(-time.Minute)}
	finnhub := &fakePrice{name: SourceFinnhub, price: 2651, ts: now}
	c := NewCoordinator(fastConfig(), WithPriceSources(yahoo, finnhub, twelve), WithClock(clk.Now))

	snap, status := c.FetchPrice(context.Background(), "XAUUSD", models.InstrumentPreciousMetal)
	assert.Equal(t, 2650.2, snap.Price)
	assert.Equal(t, SourceTwelveData, snap.Source)
	assert.Len(t, status, 3)

	snap, _ = c.FetchPrice(context.Background(), "NAS100", models.InstrumentIndex)
	assert.Equal(t, SourceYahoo, snap.Source)
}

func TestFetchPriceTieBrokenByTimestamp(t *testing.T) {
	clk := newClock()
	older := &fakePrice{name: "a", price: 1, ts: clk.Now().Add(-time.Minute)}
	newer := &fakePrice{name: "b", price: 2, ts: clk.Now()}
	c := NewCoordinator(fastConfig(), WithPriceSources(older, newer), WithClock(clk.Now))

	snap, _ := c.FetchPrice(context.Background(), "XAUUSD", models.InstrumentPreciousMetal)
	assert.Equal(t, 2.0, snap.Price)
}

func TestFetchPriceSkipsUnsupportedAndFailed(t *testing.T) {
	cryptoOnly := &fakePrice{name: SourceFinnhubStream, types: []models.InstrumentType{models.InstrumentCrypto}, price: 60000}
	failing := &fakePrice{name: SourceTwelveData, err: errors.New("quota")}
	yahoo := &fakePrice{name: SourceYahoo, price: 1.0855}
	c := NewCoordinator(fastConfig(), WithPriceSources(cryptoOnly, failing, yahoo))

	snap, status := c.FetchPrice(context.Background(), "EURUSD", models.InstrumentForex)
	assert.Equal(t, SourceYahoo, snap.Source)
	assert.Len(t, status, 2)
	assert.Equal(t, int32(0), cryptoOnly.calls.Load())

	none := NewCoordinator(fastConfig())
	snap, _ = none.FetchPrice(context.Background(), "EURUSD", models.InstrumentForex)
	assert.Equal(t, models.SourceNoData, snap.Source)
}

func TestFetchPriceCache(t *testing.T) {
	clk := newClock()
	src := &fakePrice{name: SourceTwelveData, price: 2650}
	c := NewCoordinator(fastConfig(), WithPriceSources(src), WithClock(clk.Now))

	first, _ := c.FetchPrice(context.Background(), "XAUUSD", models.InstrumentPreciousMetal)
	second, status := c.FetchPrice(context.Background(), "XAUUSD", models.InstrumentPreciousMetal)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.True(t, status[0].Cached)
	assert.Equal(t, int32(1), src.calls.Load())

	clk.Advance(31 * time.Second)
	c.FetchPrice(context.Background(), "XAUUSD", models.InstrumentPreciousMetal)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestFetchNewsMergesAndCaps(t *testing.T) {
	clk := newClock()
	var items []models.NewsItem
	for i := 0; i < 30; i++ {
		items = append(items, models.NewsItem{Title: fmt.Sprintf("headline %d", i), PublishedAt: clk.Now().Add(-time.Duration(i) * time.Minute)})
	}
	good := &fakeNews{name: SourceGoogleNews, items: items}
	bad := &fakeNews{name: SourceFinnhub, err: errors.New("401")}
	c := NewCoordinator(fastConfig(), WithNewsSources(good, bad), WithClock(clk.Now))

	got, status := c.FetchNews(context.Background(), repository.NewsQuery{Symbol: "XAUUSD"})
	assert.Len(t, got, 25)
	assert.Equal(t, "headline 0", got[0].Title)
	require.Len(t, status, 2)
	assert.True(t, status[0].OK)
	assert.False(t, status[1].OK)
	assert.Equal(t, models.SourceErrorFallback, status[1].Fallback)
}

func TestFetchBundle(t *testing.T) {
	clk := newClock()
	now := clk.Now()
	cal := &fakeCalendar{events: []models.CalendarEvent{
		{Title: "CPI", Currency: "USD", Impact: models.ImpactHigh, Time: now.Add(time.Hour)},
		{Title: "BoJ minutes", Currency: "JPY", Impact: models.ImpactLow, Time: now.Add(2 * time.Hour)},
		{Title: "Old", Currency: "USD", Impact: models.ImpactLow, Time: now.Add(-72 * time.Hour)},
	}}
	price := &fakePrice{name: SourceTwelveData, price: 2650, ts: now}
	c := NewCoordinator(fastConfig(),
		WithPriceSources(price),
		WithNewsSources(&fakeNews{name: SourceGoogleNews, items: []models.NewsItem{{Title: "Gold slips", PublishedAt: now}}}),
		WithCalendarSources(cal),
		WithClock(clk.Now),
	)

	b := c.Fetch(context.Background(), Request{
		Symbol: "XAUUSD", Type: models.InstrumentPreciousMetal,
		NeedPrice: true, NeedNews: true, NeedCalendar: true, Currencies: []string{"USD"},
	})
	require.NotNil(t, b.Price)
	assert.Equal(t, 2650.0, b.Price.Price)
	assert.Len(t, b.News, 1)
	require.Len(t, b.Events, 1)
	assert.Equal(t, "CPI", b.Events[0].Title)
	assert.Len(t, b.Status, 3)

	onlyNews := c.Fetch(context.Background(), Request{Symbol: "XAUUSD", NeedNews: true})
	assert.Nil(t, onlyNews.Price)
	assert.Empty(t, onlyNews.Events)
}
