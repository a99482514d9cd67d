package marketdata

import (
	"time"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/service/breaker"
)

// Config controls caching, timeouts and source selection.
type Config struct {
	PriceTTL    time.Duration `yaml:"price_ttl" default:"30s"`
	NewsTTL     time.Duration `yaml:"news_ttl" default:"2m"`
	CalendarTTL time.Duration `yaml:"calendar_ttl" default:"5m"`

	PriceTimeout    time.Duration `yaml:"price_timeout" default:"4s"`
	NewsTimeout     time.Duration `yaml:"news_timeout" default:"5s"`
	CalendarTimeout time.Duration `yaml:"calendar_timeout" default:"5s"`

	NewsLimit         int           `yaml:"news_limit" default:"25" validate:"gte=1"`
	CalendarLimit     int           `yaml:"calendar_limit" default:"40" validate:"gte=1"`
	CalendarLookback  time.Duration `yaml:"calendar_lookback" default:"24h"`
	CalendarLookahead time.Duration `yaml:"calendar_lookahead" default:"48h"`

	Breaker breaker.Config `yaml:"breaker"`

	// Priority overrides the source order per instrument type; earlier wins.
	Priority map[models.InstrumentType][]string `yaml:"priority"`
}

// DefaultConfig mirrors the struct tag defaults.
func DefaultConfig() Config {
	return Config{
		PriceTTL:          30 * time.Second,
		NewsTTL:           2 * time.Minute,
		CalendarTTL:       5 * time.Minute,
		PriceTimeout:      4 * time.Second,
		NewsTimeout:       5 * time.Second,
		CalendarTimeout:   5 * time.Second,
		NewsLimit:         25,
		CalendarLimit:     40,
		CalendarLookback:  24 * time.Hour,
		CalendarLookahead: 48 * time.Hour,
		Breaker:           breaker.DefaultConfig(),
	}
}

// Source names used by the built-in adapters.
const (
	SourceTwelveData    = "twelvedata"
	SourceYahoo         = "yahoo"
	SourceFinnhub       = "finnhub"
	SourceFinnhubStream = "finnhub_stream"
	SourceGoogleNews    = "googlenews"
	SourceForexFactory  = "forexfactory"
)

// DefaultPriority ranks price sources per instrument type. Spot feeds come
// first for metals and FX; futures-based Yahoo quotes lead for indices and energy.
func DefaultPriority() map[models.InstrumentType][]string {
	return map[models.InstrumentType][]string{
		models.InstrumentPreciousMetal: {SourceTwelveData, SourceYahoo, SourceFinnhub},
		models.InstrumentForex:         {SourceTwelveData, SourceFinnhub, SourceYahoo},
		models.InstrumentCrypto:        {SourceFinnhubStream, SourceTwelveData, SourceYahoo, SourceFinnhub},
		models.InstrumentIndex:         {SourceYahoo, SourceTwelveData, SourceFinnhub},
		models.InstrumentEnergy:        {SourceYahoo, SourceTwelveData, SourceFinnhub},
		models.InstrumentStock:         {SourceYahoo, SourceTwelveData, SourceFinnhub},
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PriceTTL <= 0 {
		c.PriceTTL = def.PriceTTL
	}
	if c.NewsTTL <= 0 {
		c.NewsTTL = def.NewsTTL
	}
	if c.CalendarTTL <= 0 {
		c.CalendarTTL = def.CalendarTTL
	}
	if c.PriceTimeout <= 0 {
		c.PriceTimeout = def.PriceTimeout
	}
	if c.NewsTimeout <= 0 {
		c.NewsTimeout = def.NewsTimeout
	}
	if c.CalendarTimeout <= 0 {
		c.CalendarTimeout = def.CalendarTimeout
	}
	if c.NewsLimit <= 0 {
		c.NewsLimit = def.NewsLimit
	}
	if c.CalendarLimit <= 0 {
		c.CalendarLimit = def.CalendarLimit
	}
	if c.CalendarLookback <= 0 {
		c.CalendarLookback = def.CalendarLookback
	}
	if c.CalendarLookahead <= 0 {
		c.CalendarLookahead = def.CalendarLookahead
	}
	prio := DefaultPriority()
	for k, v := range c.Priority {
		prio[k] = v
	}
	c.Priority = prio
	return c
}
