// Package twelvedata is a price source backed by the Twelve Data REST quote endpoint.
package twelvedata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/service/ratelimit"
	"MarketBrief/internal/services/normalizer"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const Name = "twelvedata"

type Config struct {
	Enabled       bool          `yaml:"enabled"`
	BaseURL       string        `yaml:"base_url" default:"https://api.twelvedata.com"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout" default:"4s"`
	RatePerMinute int           `yaml:"rate_per_minute" default:"8"`
}

// Client fetches quotes. Requests are throttled to the plan's per-minute allowance.
type Client struct {
	http    *resty.Client
	apiKey  string
	limiter *rate.Limiter
	now     func() time.Time
}

func New(cfg Config) *Client {
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 8
	}
	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	return &Client{
		http:    cli,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60), 1),
		now:     time.Now,
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) Supports(models.InstrumentType) bool { return true }

type quoteResponse struct {
	Symbol        string `json:"symbol"`
	Open          string `json:"open"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Close         string `json:"close"`
	PreviousClose string `json:"previous_close"`
	Change        string `json:"change"`
	PercentChange string `json:"percent_change"`
	Timestamp     int64  `json:"timestamp"`

	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Quote returns the latest quote for a canonical symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (models.MarketDataSnapshot, error) {
	if err := ratelimit.Wait(ctx, c.limiter); err != nil {
		return models.MarketDataSnapshot{}, fmt.Errorf("twelvedata: %w", err)
	}

	var out quoteResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"symbol": Symbol(symbol), "apikey": c.apiKey}).
		SetResult(&out).
		Get("/quote")
	if err != nil {
		return models.MarketDataSnapshot{}, fmt.Errorf("twelvedata quote %s: %w", symbol, err)
	}
	if resp.IsError() {
		return models.MarketDataSnapshot{}, fmt.Errorf("twelvedata quote %s: status %d", symbol, resp.StatusCode())
	}
	if out.Status == "error" || out.Code >= 400 {
		return models.MarketDataSnapshot{}, fmt.Errorf("twelvedata quote %s: %s", symbol, out.Message)
	}

	price := parse(out.Close)
	if price <= 0 {
		return models.MarketDataSnapshot{}, fmt.Errorf("twelvedata quote %s: no price", symbol)
	}
	ts := c.now()
	if out.Timestamp > 0 {
		ts = time.Unix(out.Timestamp, 0).UTC()
	}
	return models.MarketDataSnapshot{
		Symbol:        strings.ToUpper(symbol),
		Price:         price,
		Open:          parse(out.Open),
		High:          parse(out.High),
		Low:           parse(out.Low),
		PreviousClose: parse(out.PreviousClose),
		Change:        parse(out.Change),
		ChangePercent: parse(out.PercentChange),
		Timestamp:     ts,
		Source:        Name,
	}, nil
}

var vendorSymbols = map[string]string{
	"NAS100": "NDX",
	"SPX500": "SPX",
	"US30":   "DJI",
	"GER40":  "DAX",
	"UK100":  "FTSE",
	"JPN225": "N225",
	"DXY":    "DXY",
	"USOIL":  "WTI/USD",
	"UKOIL":  "BRENT/USD",
	"XNGUSD": "NG/USD",
}

// Symbol maps a canonical symbol to Twelve Data's notation (EUR/USD, XAU/USD, BTC/USD).
func Symbol(symbol string) string {
	s := strings.ToUpper(symbol)
	if v, ok := vendorSymbols[s]; ok {
		return v
	}
	spec := normalizer.GetInstrumentSpecs(s)
	if spec.Base != "" && spec.Quote != "" {
		return spec.Base + "/" + spec.Quote
	}
	return s
}

func parse(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
