package models

import "time"

// Fallback source labels. A snapshot carrying one of these has Price == 0.
const (
	SourceTimeoutFallback = "timeout_fallback"
	SourceErrorFallback   = "error_fallback"
	SourceCircuitOpen     = "circuit_open"
	SourceNoData          = "no_data"
)

// MarketDataSnapshot is a point-in-time quote. Price == 0 means no live data.
type MarketDataSnapshot struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
	Cached        bool      `json:"cached"`
	CircuitOpen   bool      `json:"circuit_open,omitempty"`
}

// HasPrice reports whether the snapshot carries a live quote.
func (s MarketDataSnapshot) HasPrice() bool { return s.Price > 0 }

// IsFallback reports whether the snapshot is a placeholder for a failed fetch.
func (s MarketDataSnapshot) IsFallback() bool {
	switch s.Source {
	case SourceTimeoutFallback, SourceErrorFallback, SourceCircuitOpen, SourceNoData, "":
		return true
	}
	return false
}

// FallbackSnapshot builds the placeholder returned when no source produced a quote.
func FallbackSnapshot(symbol, source string, now time.Time) MarketDataSnapshot {
	return MarketDataSnapshot{
		Symbol:      symbol,
		Timestamp:   now,
		Source:      source,
		CircuitOpen: source == SourceCircuitOpen,
	}
}

// NewsItem is a headline returned by a news source.
type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Impact levels used by economic calendars.
const (
	ImpactLow     = "low"
	ImpactMedium  = "medium"
	ImpactHigh    = "high"
	ImpactHoliday = "holiday"
)

// CalendarEvent is a scheduled economic release.
type CalendarEvent struct {
	Title    string    `json:"title"`
	Currency string    `json:"currency"`
	Impact   string    `json:"impact"`
	Time     time.Time `json:"time"`
	Actual   string    `json:"actual,omitempty"`
	Forecast string    `json:"forecast,omitempty"`
	Previous string    `json:"previous,omitempty"`
}

// MarketSession describes which trading sessions are active.
type MarketSession struct {
	Name           string   `json:"name"`
	IsOpen         bool     `json:"is_open"`
	Liquidity      string   `json:"liquidity"`
	Volatility     string   `json:"volatility"`
	ActiveSessions []string `json:"active_sessions"`
	KillZone       string   `json:"kill_zone,omitempty"`
}
