package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "XAU/USD", r.URL.Query().Get("symbol"))
		assert.Equal(t, "keep", r.URL.Query().Get("fixed"))
		assert.Equal(t, "MarketBrief/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		_, _ = w.Write([]byte(`{"price":"2650.10"}`))
	}))
	defer srv.Close()

	c := NewClient(WithHeader("X-Api-Key", "secret"))
	var out struct {
		Price string `json:"price"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL+"?fixed=keep", map[string]string{"symbol": "XAU/USD"}, &out))
	assert.Equal(t, "2650.10", out.Price)
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	_, err := NewClient().Get(context.Background(), srv.URL, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, "slow down", se.Body)
	assert.True(t, se.Retryable())
	assert.False(t, (&StatusError{Code: http.StatusNotFound}).Retryable())
}

func TestClientGetBytesAndCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<rss></rss>"))
	}))
	defer srv.Close()

	body, err := NewClient(WithUserAgent("test")).Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "<rss></rss>", string(body))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewClient().Get(ctx, srv.URL, nil)
	assert.Error(t, err)
}
