package twelvedata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MarketBrief/internal/service/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "XAU/USD", r.URL.Query().Get("symbol"))
		assert.Equal(t, "key", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"XAU/USD","open":"2660.1","high":"2670","low":"2640","close":"2645.5",
			"previous_close":"2666","change":"-20.5","percent_change":"-0.77","timestamp":1704117600}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "key", Timeout: time.Second, RatePerMinute: 600})
	snap, err := c.Quote(context.Background(), "XAUUSD")
	require.NoError(t, err)
	assert.Equal(t, "XAUUSD", snap.Symbol)
	assert.Equal(t, 2645.5, snap.Price)
	assert.Equal(t, 2670.0, snap.High)
	assert.Equal(t, -0.77, snap.ChangePercent)
	assert.Equal(t, Name, snap.Source)
	assert.Equal(t, int64(1704117600), snap.Timestamp.Unix())
}

func TestQuoteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":429,"message":"You have run out of API credits","status":"error"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: time.Second, RatePerMinute: 600})
	_, err := c.Quote(context.Background(), "EURUSD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API credits")
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "EUR/USD", Symbol("eurusd"))
	assert.Equal(t, "BTC/USD", Symbol("BTCUSD"))
	assert.Equal(t, "NDX", Symbol("NAS100"))
	assert.Equal(t, "AAPL", Symbol("AAPL"))
}

func TestQuoteThrottledLocally(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"EUR/USD","close":"1.5","timestamp":1704117600}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: time.Second, RatePerMinute: 8})
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()

	snap, err := c.Quote(ctx, "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 1.5, snap.Price)

	_, err = c.Quote(ctx, "EURUSD")
	assert.ErrorIs(t, err, ratelimit.ErrThrottled)
	assert.Equal(t, 1, hits, "throttled call never reaches the upstream")
}
