package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"MarketBrief/internal/domain/repository"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newREST(t *testing.T, routes map[string]string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, APIKey: "secret", Timeout: time.Second, RatePerMinute: 6000})
}

func TestQuote(t *testing.T) {
	c := newREST(t, map[string]string{
		"/quote": `{"c":1.0852,"d":-0.0011,"dp":-0.1,"h":1.087,"l":1.083,"o":1.086,"pc":1.0863,"t":1704117600}`,
	})
	snap, err := c.Quote(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 1.0852, snap.Price)
	assert.Equal(t, Name, snap.Source)
	assert.Equal(t, int64(1704117600), snap.Timestamp.Unix())
}

func TestQuoteNoData(t *testing.T) {
	c := newREST(t, map[string]string{"/quote": `{"c":0,"t":0}`})
	_, err := c.Quote(context.Background(), "XAUUSD")
	assert.ErrorIs(t, err, errNoData)
}

func TestNews(t *testing.T) {
	c := newREST(t, map[string]string{
		"/news": `[{"category":"forex","datetime":1704117600,"headline":" Dollar firms after CPI ","source":"Reuters","url":"https://x"},
			{"category":"forex","datetime":1704117000,"headline":"","source":"Reuters"}]`,
	})
	items, err := c.News(context.Background(), repository.NewsQuery{Symbol: "EURUSD", Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Dollar firms after CPI", items[0].Title)
	assert.Equal(t, "Reuters", items[0].Source)
}

func TestEvents(t *testing.T) {
	c := newREST(t, map[string]string{
		"/calendar/economic": `{"economicCalendar":[
			{"actual":3.4,"country":"US","estimate":3.2,"event":"CPI YoY","impact":"High","prev":3.1,"time":"2024-01-11 13:30:00","unit":"%"},
			{"country":"GB","event":"GDP MoM","impact":"medium","time":"2024-01-12 07:00:00","unit":""},
			{"country":"US","event":"bad","impact":"low","time":"not a time"}]}`,
	})
	from := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	events, err := c.Events(context.Background(), repository.CalendarQuery{From: from, To: from.Add(72 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "USD", events[0].Currency)
	assert.Equal(t, "high", events[0].Impact)
	assert.Equal(t, "3.4%", events[0].Actual)
	assert.Equal(t, "3.2%", events[0].Forecast)
	assert.Equal(t, time.Date(2024, 1, 11, 13, 30, 0, 0, time.UTC), events[0].Time)
	assert.Equal(t, "GBP", events[1].Currency)
	assert.Empty(t, events[1].Actual)
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "OANDA:EUR_USD", Symbol("EURUSD"))
	assert.Equal(t, "OANDA:XAU_USD", Symbol("XAUUSD"))
	assert.Equal(t, "BINANCE:BTCUSDT", Symbol("BTCUSD"))
	assert.Equal(t, "OANDA:NAS100_USD", Symbol("NAS100"))
	assert.Equal(t, "AAPL", Symbol("AAPL"))
}

func TestStreamKeepsLastTrade(t *testing.T) {
	upgrader := websocket.Upgrader{}
	subscribed := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var sub map[string]string
		if err := conn.ReadJSON(&sub); err == nil {
			subscribed <- sub["symbol"]
		}
		now := time.Now().UnixMilli()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`))
		_ = conn.WriteJSON(map[string]any{"type": "trade", "data": []map[string]any{
			{"s": "BINANCE:BTCUSDT", "p": 60123.5, "v": 0.1, "t": now},
			{"s": "BINANCE:DOGEUSDT", "p": 0.1, "v": 1, "t": now},
		}})
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	s := NewStream("key", StreamConfig{
		WebsocketURL:   "ws" + strings.TrimPrefix(srv.URL, "http"),
		Symbols:        []string{"BTCUSD"},
		ReconnectDelay: time.Second,
	}, nil)
	s.Start(context.Background())
	defer s.Close()

	assert.Equal(t, "BINANCE:BTCUSDT", <-subscribed)
	require.Eventually(t, func() bool {
		_, err := s.Quote(context.Background(), "btcusd")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	snap, _ := s.Quote(context.Background(), "BTCUSD")
	assert.Equal(t, 60123.5, snap.Price)
	assert.Equal(t, StreamName, snap.Source)

	_, err := s.Quote(context.Background(), "DOGEUSD")
	assert.ErrorIs(t, err, errStale)
}

func TestStreamSupportsCryptoOnly(t *testing.T) {
	s := NewStream("", StreamConfig{}, nil)
	assert.True(t, s.Supports("crypto"))
	assert.False(t, s.Supports("forex"))
}
