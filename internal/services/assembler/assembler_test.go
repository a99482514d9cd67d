package assembler

import (
	"strings"
	"testing"
	"time"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/services/intent"
	"MarketBrief/internal/services/levels"
	"MarketBrief/internal/services/normalizer"
	"MarketBrief/internal/services/session"
	"MarketBrief/internal/services/sizing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC)

func goldInput(t *testing.T, msg string) Input {
	t.Helper()
	spec := normalizer.GetInstrumentSpecs("XAUUSD")
	snap := &models.MarketDataSnapshot{
		Symbol: "XAUUSD", Price: 2645.5, High: 2670, Low: 2640, PreviousClose: 2666,
		ChangePercent: -0.77, Source: "twelvedata", Timestamp: now,
	}
	lv, ok := levels.Compute(*snap, spec.DecimalPlaces)
	require.True(t, ok)
	return Input{
		Instrument: "XAUUSD",
		Spec:       &spec,
		Timeframe:  models.TFH1,
		Intents:    intent.DetectIntents(msg),
		Session:    session.GetMarketSession(now),
		MarketData: snap,
		Levels:     &lv,
		Catalysts: []models.Catalyst{
			{Type: models.CatalystNews, Title: "Gold slides as Fed signals higher rates", Source: "reuters", Score: 125, Confidence: 0.95, Time: now.Add(-30 * time.Minute)},
			{Type: models.CatalystEconomic, Title: "US CPI m/m", Currency: "USD", Impact: "high", Score: 110, Confidence: 0.9, Time: now.Add(-time.Hour)},
		},
		UpcomingEvents: []models.CalendarEvent{
			{Title: "FOMC Minutes", Currency: "USD", Impact: models.ImpactHigh, Time: now.Add(2 * time.Hour)},
		},
		SourceStatus: []models.SourceStatus{
			{Source: "twelvedata", Kind: "price", OK: true},
			{Source: "googlenews", Kind: "news", OK: true},
		},
		Now: now,
	}
}

func types(sections []models.ResponseSection) []models.SectionType {
	out := make([]models.SectionType, len(sections))
	for i, s := range sections {
		out[i] = s.Type
	}
	return out
}

func TestAssembleOrderFollowsSectionOrder(t *testing.T) {
	in := goldInput(t, "why did gold drop, what are the key levels and scenarios?")
	sections := Assemble(in)

	got := types(sections)
	idx := 0
	for _, want := range models.SectionOrder {
		if idx < len(got) && got[idx] == want {
			idx++
		}
	}
	assert.Equal(t, len(got), idx, "sections out of order: %v", got)
	assert.Equal(t, models.SectionHeader, got[0])
	assert.Equal(t, models.SectionFooter, got[len(got)-1])
	assert.Contains(t, got, models.SectionDriver)
	assert.Contains(t, got, models.SectionFactors)
	assert.Contains(t, got, models.SectionMechanics)
	assert.Contains(t, got, models.SectionLevels)
}

func TestAssembleDriverAndText(t *testing.T) {
	in := goldInput(t, "why did gold drop today?")
	sections := Assemble(in)

	drv, ok := find(sections, models.SectionDriver)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(drv.Content, "Primary driver: Gold slides as Fed signals higher rates"))
	assert.Contains(t, drv.Content, "30m ago")

	text := Render(sections)
	assert.True(t, strings.HasPrefix(text, "XAUUSD · H1 · "))
	assert.Contains(t, text, "\n\nPrimary driver:")
	assert.Contains(t, text, "Not financial advice.")
	assert.Contains(t, text, "Sources: twelvedata, googlenews.")
}

func TestAssembleNoCatalyst(t *testing.T) {
	in := goldInput(t, "why did gold drop today?")
	in.Catalysts = nil
	sections := Assemble(in)

	drv, ok := find(sections, models.SectionDriver)
	require.True(t, ok)
	assert.Equal(t, noCatalystText, drv.Content)
	_, ok = find(sections, models.SectionFactors)
	assert.False(t, ok)

	ws := Validate(in, sections)
	require.NotEmpty(t, ws)
	assert.Equal(t, WarnNoCatalyst, ws[0].Kind)
}

func TestAssembleWithoutPriceSkipsPriceSections(t *testing.T) {
	in := goldInput(t, "gold bias with key levels and scenarios")
	fb := models.FallbackSnapshot("XAUUSD", models.SourceTimeoutFallback, now)
	in.MarketData = &fb
	in.Levels = nil
	in.SourceStatus = []models.SourceStatus{{Source: "twelvedata", Kind: "price", Fallback: models.SourceTimeoutFallback}}

	sections := Assemble(in)
	got := types(sections)
	assert.NotContains(t, got, models.SectionMechanics)
	assert.NotContains(t, got, models.SectionLevels)
	assert.NotContains(t, got, models.SectionScenarios)

	kinds := map[string]bool{}
	for _, w := range Validate(in, sections) {
		kinds[w.Kind] = true
	}
	assert.True(t, kinds[WarnNoLevels])
	assert.True(t, kinds[WarnNoScenarios])
	assert.True(t, kinds[WarnFallbackData])
	assert.True(t, kinds[WarnSourceFailed])
}

func TestAssembleSizing(t *testing.T) {
	in := goldInput(t, "what lot size should I use for gold?")
	res := sizing.CalculatePositionSize(models.PositionSizeRequest{
		Instrument: "XAUUSD", AccountSize: 10000, RiskPercent: 1, EntryPrice: 2650, StopLoss: 2640,
	})
	in.Position = &res
	sections := Assemble(in)

	sz, ok := find(sections, models.SectionSizing)
	require.True(t, ok)
	assert.Contains(t, sz.Content, "Position size: 0.1 lots")
	assert.Contains(t, sz.Content, "Risk amount: $100.00")
	assert.Empty(t, Validate(in, sections))
}

func TestValidateSizingError(t *testing.T) {
	in := goldInput(t, "position size for gold please")
	res := sizing.CalculatePositionSize(models.PositionSizeRequest{Instrument: "XAUUSD"})
	in.Position = &res
	sections := Assemble(in)

	_, ok := find(sections, models.SectionSizing)
	assert.True(t, ok)
	ws := Validate(in, sections)
	require.Len(t, ws, 1)
	assert.Equal(t, WarnNoSizing, ws[0].Kind)
	assert.Contains(t, ws[0].Message, "missing account size")
}

func TestValidateSession(t *testing.T) {
	in := goldInput(t, "is the market open for gold?")
	var types []models.IntentType
	for _, it := range in.Intents {
		types = append(types, it.Type)
	}
	require.Contains(t, types, models.IntentSession)
	kinds := map[string]bool{}
	for _, w := range Validate(in, Assemble(in)) {
		kinds[w.Kind] = true
	}
	assert.False(t, kinds[WarnNoSession])

	in.Session = models.MarketSession{}
	kinds = map[string]bool{}
	for _, w := range Validate(in, Assemble(in)) {
		kinds[w.Kind] = true
	}
	assert.True(t, kinds[WarnNoSession])
}

func TestValidateCachedData(t *testing.T) {
	in := goldInput(t, "why did gold move?")
	in.MarketData.Cached = true
	ws := Validate(in, Assemble(in))
	assert.Contains(t, Messages(ws), "market data served from cache")
}

func TestWatchListsUpcomingEvents(t *testing.T) {
	in := goldInput(t, "gold calendar this week")
	sections := Assemble(in)
	w, ok := find(sections, models.SectionWatch)
	require.True(t, ok)
	assert.Contains(t, w.Content, "USD FOMC Minutes (high, in 2h)")

	r, ok := find(sections, models.SectionRisk)
	require.True(t, ok)
	assert.Contains(t, r.Content, "High-impact USD FOMC Minutes in 2h")
}

func TestRelative(t *testing.T) {
	assert.Equal(t, "just now", relative(now, now))
	assert.Equal(t, "45m ago", relative(now.Add(-45*time.Minute), now))
	assert.Equal(t, "in 3h", relative(now.Add(3*time.Hour), now))
	assert.Equal(t, "3d ago", relative(now.Add(-72*time.Hour), now))
}

func find(sections []models.ResponseSection, t models.SectionType) (models.ResponseSection, bool) {
	for _, s := range sections {
		if s.Type == t {
			return s, true
		}
	}
	return models.ResponseSection{}, false
}
