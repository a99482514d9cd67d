// Package yahoo is a price source backed by Yahoo Finance quotes.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/service/ratelimit"
	"MarketBrief/internal/services/normalizer"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	"golang.org/x/time/rate"
)

const Name = "yahoo"

type Config struct {
	Enabled       bool `yaml:"enabled"`
	RatePerMinute int  `yaml:"rate_per_minute" default:"60"`
}

// QuoteFunc fetches one Yahoo quote. quote.Get in production.
type QuoteFunc func(symbol string) (*finance.Quote, error)

// Client adapts finance-go to the price source contract. Futures contracts
// stand in for spot metals and energy.
type Client struct {
	get     QuoteFunc
	limiter *rate.Limiter
}

func New(cfg Config) *Client {
	return NewWithQuoteFunc(cfg, quote.Get)
}

func NewWithQuoteFunc(cfg Config, fn QuoteFunc) *Client {
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 60
	}
	return &Client{get: fn, limiter: rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60), 2)}
}

func (c *Client) Name() string { return Name }

func (c *Client) Supports(models.InstrumentType) bool { return true }

var errNoQuote = errors.New("yahoo: empty quote")

// Quote returns the regular-market quote. The underlying client takes no
// context, so cancellation is enforced by the caller's timeout.
func (c *Client) Quote(ctx context.Context, symbol string) (models.MarketDataSnapshot, error) {
	if err := ratelimit.Wait(ctx, c.limiter); err != nil {
		return models.MarketDataSnapshot{}, fmt.Errorf("yahoo: %w", err)
	}
	q, err := c.get(Symbol(symbol))
	if err != nil {
		return models.MarketDataSnapshot{}, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return models.MarketDataSnapshot{}, fmt.Errorf("yahoo quote %s: %w", symbol, errNoQuote)
	}
	ts := time.Now().UTC()
	if q.RegularMarketTime > 0 {
		ts = time.Unix(int64(q.RegularMarketTime), 0).UTC()
	}
	return models.MarketDataSnapshot{
		Symbol:        strings.ToUpper(symbol),
		Price:         q.RegularMarketPrice,
		Open:          q.RegularMarketOpen,
		High:          q.RegularMarketDayHigh,
		Low:           q.RegularMarketDayLow,
		PreviousClose: q.RegularMarketPreviousClose,
		Change:        q.RegularMarketChange,
		ChangePercent: q.RegularMarketChangePercent,
		Timestamp:     ts,
		Source:        Name,
	}, nil
}

var vendorSymbols = map[string]string{
	"XAUUSD": "GC=F",
	"XAGUSD": "SI=F",
	"USOIL":  "CL=F",
	"UKOIL":  "BZ=F",
	"XNGUSD": "NG=F",
	"NAS100": "^NDX",
	"SPX500": "^GSPC",
	"US30":   "^DJI",
	"GER40":  "^GDAXI",
	"UK100":  "^FTSE",
	"JPN225": "^N225",
	"DXY":    "DX-Y.NYB",
}

// Symbol maps a canonical symbol to Yahoo's ticker (EURUSD=X, BTC-USD, GC=F).
func Symbol(symbol string) string {
	s := strings.ToUpper(symbol)
	if v, ok := vendorSymbols[s]; ok {
		return v
	}
	spec := normalizer.GetInstrumentSpecs(s)
	switch spec.Type {
	case models.InstrumentForex:
		return s + "=X"
	case models.InstrumentCrypto:
		return spec.Base + "-USD"
	default:
		return s
	}
}
