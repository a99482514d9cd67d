package catalyst

import (
	"testing"
	"time"

	"MarketBrief/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

func fixture() ([]models.NewsItem, []models.CalendarEvent) {
	news := []models.NewsItem{
		{Title: "Gold slides as Fed signals higher rates", Source: "reuters", PublishedAt: now.Add(-30 * time.Minute)},
		{Title: "Breaking: XAUUSD breaks below 2650 support", Source: "fxstreet", PublishedAt: now.Add(-2 * time.Hour)},
		{Title: "Gold slides as Fed signals higher rate", Source: "yahoo", PublishedAt: now.Add(-20 * time.Minute)},
		{Title: "Oil inventories rise", Source: "cnbc", PublishedAt: now.Add(-10 * time.Hour)},
	}
	events := []models.CalendarEvent{
		{Title: "US CPI m/m", Currency: "USD", Impact: "High", Time: now.Add(-30 * time.Minute)},
		{Title: "German Factory Orders", Currency: "EUR", Impact: "Medium", Time: now.Add(3 * time.Hour)},
	}
	return news, events
}

func TestRankCatalysts(t *testing.T) {
	news, events := fixture()
	got := RankCatalysts(news, events, "XAUUSD", now)
	require.Len(t, got, 5)

	titles := make([]string, len(got))
	scores := make([]float64, len(got))
	for i, c := range got {
		titles[i] = c.Title
		scores[i] = c.Score
	}
	assert.Equal(t, []string{
		"US CPI m/m",
		"Gold slides as Fed signals higher rates",
		"Breaking: XAUUSD breaks below 2650 support",
		"German Factory Orders",
		"Oil inventories rise",
	}, titles)
	assert.Equal(t, []float64{125, 110, 100, 70, 50}, scores)

	assert.Equal(t, models.CatalystEconomic, got[0].Type)
	assert.Equal(t, "high", got[0].Impact)
	assert.Equal(t, 1.0, got[0].Confidence)
	assert.InDelta(t, 0.5, got[4].Confidence, 1e-9)
	assert.Equal(t, "reuters", got[1].Source)
}

func TestRankCatalystsSortedDescending(t *testing.T) {
	news, events := fixture()
	got := RankCatalysts(news, events, "EURUSD", now)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestRankCatalystsDedupeNewsFirst(t *testing.T) {
	news := []models.NewsItem{{Title: "Fed holds rates steady", PublishedAt: now}}
	events := []models.CalendarEvent{{Title: "FED Holds Rates Steady", Currency: "USD", Impact: "High", Time: now}}
	got := RankCatalysts(news, events, "EURUSD", now)
	require.Len(t, got, 1)
	assert.Equal(t, models.CatalystNews, got[0].Type)
}

func TestRankCatalystsEmpty(t *testing.T) {
	assert.Empty(t, RankCatalysts(nil, nil, "", now))
	assert.Empty(t, RankCatalysts([]models.NewsItem{{Title: "  "}}, nil, "XAUUSD", now))
}

func TestRankerCustomConfig(t *testing.T) {
	cfg := DefaultScoringConfig()
	cfg.NewsBase = 10
	r := NewRanker(cfg)
	got := r.Rank([]models.NewsItem{{Title: "quiet day"}}, nil, "XAUUSD", now)
	require.Len(t, got, 1)
	assert.Equal(t, 10.0, got[0].Score)
}

func TestTopDriverAndFactors(t *testing.T) {
	news, events := fixture()
	got := RankCatalysts(news, events, "XAUUSD", now)

	top, ok := TopDriver(got)
	require.True(t, ok)
	assert.Equal(t, "US CPI m/m", top.Title)
	assert.Len(t, SupportingFactors(got), 3)

	_, ok = TopDriver(nil)
	assert.False(t, ok)
	assert.Empty(t, SupportingFactors(got[:1]))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Gold", "gold "))
	assert.InDelta(t, 1-3.0/7, Similarity("kitten", "sitting"), 1e-9)
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 3, levenshtein("", "abc"))
}
