// Package finnhub provides price, news and economic calendar sources backed by
// Finnhub, plus a websocket trade stream for crypto.
package finnhub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/domain/repository"
	"MarketBrief/internal/service/ratelimit"
	"MarketBrief/internal/services/normalizer"
	pkghttp "MarketBrief/pkg/http"

	"golang.org/x/time/rate"
)

const Name = "finnhub"

type Config struct {
	Enabled       bool          `yaml:"enabled"`
	BaseURL       string        `yaml:"base_url" default:"https://finnhub.io/api/v1"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout" default:"5s"`
	RatePerMinute int           `yaml:"rate_per_minute" default:"60"`
	Stream        StreamConfig  `yaml:"stream"`
}

// Client talks to the Finnhub REST API. It serves as price, news and calendar source.
type Client struct {
	http    *pkghttp.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

func New(cfg Config) *Client {
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 60
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		http:    pkghttp.NewClient(pkghttp.WithTimeout(cfg.Timeout)),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60), 5),
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) Supports(models.InstrumentType) bool { return true }

func (c *Client) get(ctx context.Context, path string, query map[string]string, dest any) error {
	if err := ratelimit.Wait(ctx, c.limiter); err != nil {
		return fmt.Errorf("finnhub: %w", err)
	}
	query["token"] = c.apiKey
	return c.http.GetJSON(ctx, c.baseURL+path, query, dest)
}

type quoteResponse struct {
	C  float64 `json:"c"`
	D  float64 `json:"d"`
	DP float64 `json:"dp"`
	H  float64 `json:"h"`
	L  float64 `json:"l"`
	O  float64 `json:"o"`
	PC float64 `json:"pc"`
	T  int64   `json:"t"`
}

var errNoData = errors.New("finnhub: no data")

// Quote returns the latest quote for a canonical symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (models.MarketDataSnapshot, error) {
	var q quoteResponse
	if err := c.get(ctx, "/quote", map[string]string{"symbol": Symbol(symbol)}, &q); err != nil {
		return models.MarketDataSnapshot{}, fmt.Errorf("finnhub quote %s: %w", symbol, err)
	}
	if q.C <= 0 {
		return models.MarketDataSnapshot{}, fmt.Errorf("finnhub quote %s: %w", symbol, errNoData)
	}
	ts := time.Now().UTC()
	if q.T > 0 {
		ts = time.Unix(q.T, 0).UTC()
	}
	return models.MarketDataSnapshot{
		Symbol:        strings.ToUpper(symbol),
		Price:         q.C,
		Open:          q.O,
		High:          q.H,
		Low:           q.L,
		PreviousClose: q.PC,
		Change:        q.D,
		ChangePercent: q.DP,
		Timestamp:     ts,
		Source:        Name,
	}, nil
}

type newsResponse struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Source   string `json:"source"`
	URL      string `json:"url"`
}

// News returns the market news feed for the symbol's asset class.
func (c *Client) News(ctx context.Context, q repository.NewsQuery) ([]models.NewsItem, error) {
	var raw []newsResponse
	if err := c.get(ctx, "/news", map[string]string{"category": newsCategory(q.Symbol)}, &raw); err != nil {
		return nil, fmt.Errorf("finnhub news: %w", err)
	}
	out := make([]models.NewsItem, 0, len(raw))
	for _, n := range raw {
		if strings.TrimSpace(n.Headline) == "" {
			continue
		}
		out = append(out, models.NewsItem{
			Title:       strings.TrimSpace(n.Headline),
			Source:      n.Source,
			URL:         n.URL,
			PublishedAt: time.Unix(n.Datetime, 0).UTC(),
		})
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func newsCategory(symbol string) string {
	if symbol == "" {
		return "general"
	}
	switch normalizer.GetInstrumentSpecs(symbol).Type {
	case models.InstrumentForex, models.InstrumentPreciousMetal:
		return "forex"
	case models.InstrumentCrypto:
		return "crypto"
	default:
		return "general"
	}
}

type calendarResponse struct {
	EconomicCalendar []struct {
		Actual   *float64 `json:"actual"`
		Country  string   `json:"country"`
		Estimate *float64 `json:"estimate"`
		Event    string   `json:"event"`
		Impact   string   `json:"impact"`
		Prev     *float64 `json:"prev"`
		Time     string   `json:"time"`
		Unit     string   `json:"unit"`
	} `json:"economicCalendar"`
}

var countryCurrency = map[string]string{
	"US": "USD", "EU": "EUR", "DE": "EUR", "FR": "EUR", "IT": "EUR", "ES": "EUR",
	"GB": "GBP", "UK": "GBP", "JP": "JPY", "CH": "CHF", "CA": "CAD",
	"AU": "AUD", "NZ": "NZD", "CN": "CNY",
}

const calendarTimeLayout = "2006-01-02 15:04:05"

// Events returns economic releases between q.From and q.To.
func (c *Client) Events(ctx context.Context, q repository.CalendarQuery) ([]models.CalendarEvent, error) {
	var raw calendarResponse
	query := map[string]string{
		"from": q.From.UTC().Format("2006-01-02"),
		"to":   q.To.UTC().Format("2006-01-02"),
	}
	if err := c.get(ctx, "/calendar/economic", query, &raw); err != nil {
		return nil, fmt.Errorf("finnhub calendar: %w", err)
	}
	out := make([]models.CalendarEvent, 0, len(raw.EconomicCalendar))
	for _, e := range raw.EconomicCalendar {
		t, err := time.ParseInLocation(calendarTimeLayout, e.Time, time.UTC)
		if err != nil {
			continue
		}
		cur := countryCurrency[strings.ToUpper(e.Country)]
		if cur == "" {
			cur = strings.ToUpper(e.Country)
		}
		out = append(out, models.CalendarEvent{
			Title:    e.Event,
			Currency: cur,
			Impact:   strings.ToLower(e.Impact),
			Time:     t,
			Actual:   formatValue(e.Actual, e.Unit),
			Forecast: formatValue(e.Estimate, e.Unit),
			Previous: formatValue(e.Prev, e.Unit),
		})
	}
	return out, nil
}

func formatValue(v *float64, unit string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%g%s", *v, unit))
}

var vendorSymbols = map[string]string{
	"NAS100": "OANDA:NAS100_USD",
	"SPX500": "OANDA:SPX500_USD",
	"US30":   "OANDA:US30_USD",
	"GER40":  "OANDA:DE30_EUR",
	"UK100":  "OANDA:UK100_GBP",
	"JPN225": "OANDA:JP225_USD",
	"USOIL":  "OANDA:WTICO_USD",
	"UKOIL":  "OANDA:BCO_USD",
	"XNGUSD": "OANDA:NATGAS_USD",
}

// Symbol maps a canonical symbol to Finnhub's exchange-prefixed notation.
func Symbol(symbol string) string {
	s := strings.ToUpper(symbol)
	if v, ok := vendorSymbols[s]; ok {
		return v
	}
	spec := normalizer.GetInstrumentSpecs(s)
	switch spec.Type {
	case models.InstrumentForex, models.InstrumentPreciousMetal:
		return "OANDA:" + spec.Base + "_" + spec.Quote
	case models.InstrumentCrypto:
		return "BINANCE:" + spec.Base + "USDT"
	default:
		return s
	}
}
