package forexfactory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"title":"CPI m/m","country":"USD","date":"2024-01-11T08:30:00-05:00","impact":"High","forecast":"0.2%","previous":"0.1%"},
			{"title":"Bank Holiday","country":"jpy","date":"2024-01-08T00:00:00-05:00","impact":"Holiday"},
			{"title":"Broken","country":"EUR","date":"yesterday","impact":"Low"}
		]`))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, Timeout: time.Second})
	events, err := c.Events(context.Background(), repository.CalendarQuery{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "CPI m/m", events[0].Title)
	assert.Equal(t, models.ImpactHigh, events[0].Impact)
	assert.Equal(t, time.Date(2024, 1, 11, 13, 30, 0, 0, time.UTC), events[0].Time)
	assert.Equal(t, "0.2%", events[0].Forecast)
	assert.Equal(t, "JPY", events[1].Currency)
	assert.Equal(t, models.ImpactHoliday, events[1].Impact)
}

func TestEventsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(Config{URL: srv.URL}).Events(context.Background(), repository.CalendarQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
