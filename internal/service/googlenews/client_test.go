package googlenews

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MarketBrief/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>gold</title>
<item>
  <title>Gold slides as Fed signals higher rates - Reuters</title>
  <link>https://news.google.com/a</link>
  <pubDate>Mon, 01 Jan 2024 14:00:00 GMT</pubDate>
  <source url="https://www.reuters.com">Reuters</source>
</item>
<item>
  <title>&lt;b&gt;Bullion&lt;/b&gt; steadies - Kitco News</title>
  <link>https://news.google.com/b</link>
  <pubDate>Mon, 01 Jan 2024 13:00:00 GMT</pubDate>
  <source url="https://www.kitco.com">Kitco News</source>
</item>
<item><title></title></item>
</channel></rss>`

func TestNews(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: time.Second, RatePerMinute: 600})
	items, err := c.News(context.Background(), repository.NewsQuery{Symbol: "XAUUSD", Keywords: []string{"gold", "xau", "bullion"}})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "(gold OR xau) price when:1d", gotQuery)
	assert.Equal(t, "Gold slides as Fed signals higher rates", items[0].Title)
	assert.Equal(t, "Reuters", items[0].Source)
	assert.Equal(t, time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC), items[0].PublishedAt)
	assert.Equal(t, "Bullion steadies", items[1].Title)
	assert.Equal(t, "Kitco News", items[1].Source)
}

func TestNewsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL, Timeout: time.Second}).News(context.Background(), repository.NewsQuery{Symbol: "EURUSD"})
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	assert.Equal(t, `(s&p OR "s&p 500") price`, Query(repository.NewsQuery{Symbol: "SPX500"}))
	assert.Equal(t, "markets", Query(repository.NewsQuery{}))
}
