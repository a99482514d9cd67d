// Package googlenews is a news source backed by the Google News RSS search feed.
package googlenews

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/domain/repository"
	"MarketBrief/internal/service/ratelimit"
	"MarketBrief/internal/services/normalizer"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const Name = "googlenews"

type Config struct {
	Enabled       bool          `yaml:"enabled"`
	BaseURL       string        `yaml:"base_url" default:"https://news.google.com/rss/search"`
	Language      string        `yaml:"language" default:"en-US"`
	Country       string        `yaml:"country" default:"US"`
	Window        string        `yaml:"window" default:"1d"`
	Timeout       time.Duration `yaml:"timeout" default:"5s"`
	RatePerMinute int           `yaml:"rate_per_minute" default:"30"`
}

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []item `xml:"item"`
	} `xml:"channel"`
}

type item struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
	Source  struct {
		URL  string `xml:"url,attr"`
		Text string `xml:",chardata"`
	} `xml:"source"`
}

type Client struct {
	http    *resty.Client
	cfg     Config
	limiter *rate.Limiter
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://news.google.com/rss/search"
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.Country == "" {
		cfg.Country = "US"
	}
	if cfg.Window == "" {
		cfg.Window = "1d"
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 30
	}
	cli := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; MarketBrief/1.0)")
	return &Client{http: cli, cfg: cfg, limiter: rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60), 2)}
}

func (c *Client) Name() string { return Name }

// News searches recent headlines for the instrument's keywords.
func (c *Client) News(ctx context.Context, q repository.NewsQuery) ([]models.NewsItem, error) {
	if err := ratelimit.Wait(ctx, c.limiter); err != nil {
		return nil, fmt.Errorf("googlenews: %w", err)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":    Query(q) + " when:" + c.cfg.Window,
			"hl":   c.cfg.Language,
			"gl":   c.cfg.Country,
			"ceid": c.cfg.Country + ":" + strings.SplitN(c.cfg.Language, "-", 2)[0],
		}).
		Get(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("googlenews fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("googlenews fetch: HTTP %d", resp.StatusCode())
	}

	var feed rss
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, fmt.Errorf("googlenews parse: %w", err)
	}

	out := make([]models.NewsItem, 0, len(feed.Channel.Items))
	for _, it := range feed.Channel.Items {
		title, source := splitTitle(cleanText(it.Title), strings.TrimSpace(it.Source.Text))
		if title == "" {
			continue
		}
		out = append(out, models.NewsItem{
			Title:       title,
			Source:      source,
			URL:         it.Link,
			PublishedAt: parseDate(it.PubDate),
		})
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

// Query builds the search expression: the two leading keywords OR'ed, plus a market term.
func Query(q repository.NewsQuery) string {
	kws := q.Keywords
	if len(kws) == 0 && q.Symbol != "" {
		kws = normalizer.Keywords(q.Symbol)
	}
	if len(kws) == 0 {
		return "markets"
	}
	if len(kws) > 2 {
		kws = kws[:2]
	}
	parts := make([]string, len(kws))
	for i, k := range kws {
		if strings.Contains(k, " ") {
			k = `"` + k + `"`
		}
		parts[i] = k
	}
	return "(" + strings.Join(parts, " OR ") + ") price"
}

// cleanText strips any markup from a feed field.
func cleanText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// splitTitle removes the " - Publisher" suffix Google appends to titles.
func splitTitle(title, source string) (string, string) {
	if i := strings.LastIndex(title, " - "); i > 0 {
		suffix := strings.TrimSpace(title[i+3:])
		if source == "" || strings.EqualFold(suffix, source) {
			return strings.TrimSpace(title[:i]), suffix
		}
	}
	return title, source
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC1123, time.RFC1123Z} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
