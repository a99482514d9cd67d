// Package catalyst scores news and calendar events as candidate drivers of a move.
package catalyst

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/services/normalizer"
)

var (
	tier1Re      = regexp.MustCompile(`(?i)\b(fed|fomc|powell|cpi|inflation|nfp|non-?farm|payrolls|rate decision|interest rate|ecb|boe|boj)\b`)
	tier2Re      = regexp.MustCompile(`(?i)\b(gdp|pmi|retail sales|unemployment|jobless|opec|tariffs?)\b`)
	breakingRe   = regexp.MustCompile(`(?i)\b(breaking|urgent|just in|flash)\b`)
	developingRe = regexp.MustCompile(`(?i)\b(alert|developing|live)\b`)
)

// Ranker scores and orders catalysts with a fixed point table.
type Ranker struct {
	cfg ScoringConfig
}

// NewRanker builds a ranker. A zero config falls back to DefaultScoringConfig.
func NewRanker(cfg ScoringConfig) *Ranker {
	if cfg == (ScoringConfig{}) {
		cfg = DefaultScoringConfig()
	}
	return &Ranker{cfg: cfg}
}

// RankCatalysts uses the default point table.
func RankCatalysts(news []models.NewsItem, events []models.CalendarEvent, instrument string, now time.Time) []models.Catalyst {
	return NewRanker(DefaultScoringConfig()).Rank(news, events, instrument, now)
}

// Rank merges news and events into a deduplicated list sorted by descending score.
func (r *Ranker) Rank(news []models.NewsItem, events []models.CalendarEvent, instrument string, now time.Time) []models.Catalyst {
	symbol := strings.ToUpper(instrument)
	var keywords, currencies []string
	if symbol != "" {
		keywords = normalizer.Keywords(symbol)
		currencies = normalizer.Currencies(symbol)
	}

	candidates := make([]models.Catalyst, 0, len(news)+len(events))
	for _, n := range news {
		if strings.TrimSpace(n.Title) == "" {
			continue
		}
		candidates = append(candidates, r.scoreNews(n, symbol, keywords, now))
	}
	for _, e := range events {
		if strings.TrimSpace(e.Title) == "" {
			continue
		}
		candidates = append(candidates, r.scoreEvent(e, currencies, now))
	}

	out := r.dedupe(candidates)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func (r *Ranker) scoreNews(n models.NewsItem, symbol string, keywords []string, now time.Time) models.Catalyst {
	cfg := r.cfg
	title := strings.ToLower(n.Title)
	score := cfg.NewsBase

	switch {
	case symbol != "" && mentionsSymbol(title, symbol):
		score += cfg.SymbolMention
	case containsAny(title, keywords):
		score += cfg.KeywordMention
	}

	if !n.PublishedAt.IsZero() {
		age := now.Sub(n.PublishedAt)
		if age < 0 {
			age = 0
		}
		switch {
		case age < cfg.FreshWindow:
			score += cfg.FreshBonus
		case age < cfg.RecentWindow:
			score += cfg.RecentBonus
		}
	}

	switch {
	case tier1Re.MatchString(title):
		score += cfg.Tier1Macro
	case tier2Re.MatchString(title):
		score += cfg.Tier2Macro
	}

	switch {
	case breakingRe.MatchString(title):
		score += cfg.BreakingLanguage
	case developingRe.MatchString(title):
		score += cfg.DevelopingLanguage
	}

	return models.Catalyst{
		Type:       models.CatalystNews,
		Title:      n.Title,
		Score:      score,
		Confidence: confidence(score),
		Time:       n.PublishedAt,
		Source:     n.Source,
	}
}

func (r *Ranker) scoreEvent(e models.CalendarEvent, currencies []string, now time.Time) models.Catalyst {
	cfg := r.cfg
	score := cfg.EventBase

	switch strings.ToLower(e.Impact) {
	case models.ImpactHigh:
		if tier1Re.MatchString(e.Title) {
			score += cfg.HighImpactTier1
		} else {
			score += cfg.HighImpact
		}
	case models.ImpactMedium:
		score += cfg.MediumImpact
	}

	for _, c := range currencies {
		if strings.EqualFold(c, e.Currency) {
			score += cfg.CurrencyMatch
			break
		}
	}

	if !e.Time.IsZero() {
		if delta := now.Sub(e.Time); delta >= 0 {
			switch {
			case delta <= cfg.FreshWindow:
				score += cfg.ReleasedFresh
			case delta <= cfg.RecentWindow:
				score += cfg.ReleasedRecent
			}
		} else {
			switch until := -delta; {
			case until <= cfg.FreshWindow:
				score += cfg.DueSoon
			case until <= cfg.RecentWindow:
				score += cfg.DueLater
			}
		}
	}

	return models.Catalyst{
		Type:       models.CatalystEconomic,
		Title:      e.Title,
		Score:      score,
		Confidence: confidence(score),
		Time:       e.Time,
		Impact:     strings.ToLower(e.Impact),
		Currency:   e.Currency,
		Actual:     e.Actual,
		Forecast:   e.Forecast,
		Previous:   e.Previous,
	}
}

// dedupe keeps the first of any pair of titles more similar than the threshold.
func (r *Ranker) dedupe(in []models.Catalyst) []models.Catalyst {
	out := make([]models.Catalyst, 0, len(in))
	for _, c := range in {
		dup := false
		for _, kept := range out {
			if Similarity(c.Title, kept.Title) > r.cfg.SimilarityThreshold {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

// TopDriver returns the highest ranked catalyst.
func TopDriver(ranked []models.Catalyst) (models.Catalyst, bool) {
	if len(ranked) == 0 {
		return models.Catalyst{}, false
	}
	return ranked[0], true
}

// SupportingFactors returns up to three catalysts after the top driver.
func SupportingFactors(ranked []models.Catalyst) []models.Catalyst {
	if len(ranked) <= 1 {
		return nil
	}
	end := min(len(ranked), 4)
	return ranked[1:end]
}

func confidence(score float64) float64 {
	return math.Min(score/100, 1)
}

func mentionsSymbol(title, symbol string) bool {
	s := strings.ToLower(symbol)
	if containsWord(title, s) {
		return true
	}
	if len(s) == 6 {
		return strings.Contains(title, s[:3]+"/"+s[3:])
	}
	return false
}

func containsAny(title string, words []string) bool {
	for _, w := range words {
		if containsWord(title, w) {
			return true
		}
	}
	return false
}

// containsWord reports whether w occurs in s bounded by non-alphanumerics.
func containsWord(s, w string) bool {
	if w == "" {
		return false
	}
	for i := 0; ; {
		j := strings.Index(s[i:], w)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(w)
		if (start == 0 || !isAlnum(s[start-1])) && (end == len(s) || !isAlnum(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
