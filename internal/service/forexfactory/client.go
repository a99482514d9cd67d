// Package forexfactory is a calendar source backed by the Forex Factory weekly JSON export.
package forexfactory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/domain/repository"
	pkghttp "MarketBrief/pkg/http"
)

const Name = "forexfactory"

type Config struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url" default:"https://nfs.faireconomy.media/ff_calendar_thisweek.json"`
	Timeout time.Duration `yaml:"timeout" default:"5s"`
}

type Client struct {
	http *pkghttp.Client
	url  string
}

func New(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = "https://nfs.faireconomy.media/ff_calendar_thisweek.json"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{http: pkghttp.NewClient(pkghttp.WithTimeout(cfg.Timeout)), url: cfg.URL}
}

func (c *Client) Name() string { return Name }

type event struct {
	Title    string `json:"title"`
	Country  string `json:"country"`
	Date     string `json:"date"`
	Impact   string `json:"impact"`
	Forecast string `json:"forecast"`
	Previous string `json:"previous"`
	Actual   string `json:"actual"`
}

// Events returns this week's releases. The export ignores query filters, so
// the window is applied by the caller.
func (c *Client) Events(ctx context.Context, _ repository.CalendarQuery) ([]models.CalendarEvent, error) {
	var raw []event
	if err := c.http.GetJSON(ctx, c.url, nil, &raw); err != nil {
		return nil, fmt.Errorf("forexfactory calendar: %w", err)
	}
	out := make([]models.CalendarEvent, 0, len(raw))
	for _, e := range raw {
		t, err := time.Parse(time.RFC3339, e.Date)
		if err != nil {
			continue
		}
		out = append(out, models.CalendarEvent{
			Title:    strings.TrimSpace(e.Title),
			Currency: strings.ToUpper(e.Country),
			Impact:   impact(e.Impact),
			Time:     t.UTC(),
			Actual:   e.Actual,
			Forecast: e.Forecast,
			Previous: e.Previous,
		})
	}
	return out, nil
}

func impact(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return models.ImpactHigh
	case "medium":
		return models.ImpactMedium
	case "holiday":
		return models.ImpactHoliday
	default:
		return models.ImpactLow
	}
}
