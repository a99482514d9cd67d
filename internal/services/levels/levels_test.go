package levels

import (
	"testing"

	"MarketBrief/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	s := models.MarketDataSnapshot{Price: 2645, High: 2670, Low: 2640, ChangePercent: -0.8, PreviousClose: 2666, Source: "twelvedata"}
	got, ok := Compute(s, 2)
	require.True(t, ok)
	assert.InDelta(t, 2651.67, got.Pivot, 1e-9)
	assert.InDelta(t, 2663.33, got.R1, 1e-9)
	assert.InDelta(t, 2633.33, got.S1, 1e-9)
	assert.InDelta(t, 2681.67, got.R2, 1e-9)
	assert.InDelta(t, 2621.67, got.S2, 1e-9)
	assert.Equal(t, BiasBearish, got.Bias)
}

func TestComputeNoPrice(t *testing.T) {
	_, ok := Compute(models.FallbackSnapshot("XAUUSD", models.SourceTimeoutFallback, models.MarketDataSnapshot{}.Timestamp), 2)
	assert.False(t, ok)
}

func TestComputeMissingRange(t *testing.T) {
	_, ok := Compute(models.MarketDataSnapshot{Price: 60000, Source: "finnhub_stream"}, 2)
	assert.False(t, ok, "a last-trade price has no range")

	_, ok = Compute(models.MarketDataSnapshot{Price: 100, High: 100, Low: 100}, 2)
	assert.False(t, ok, "zero range")

	_, ok = Compute(models.MarketDataSnapshot{Price: 100, High: 90, Low: 95}, 2)
	assert.False(t, ok, "inverted range")

	got, ok := Compute(models.MarketDataSnapshot{Price: 105, High: 104, Low: 100}, 2)
	require.True(t, ok)
	assert.Equal(t, 105.0, got.DayHigh, "price outside the range widens it")
}

func TestBias(t *testing.T) {
	assert.Equal(t, BiasBullish, Bias(0.3))
	assert.Equal(t, BiasBearish, Bias(-1))
	assert.Equal(t, BiasNeutral, Bias(0.1))
}

func TestScenarios(t *testing.T) {
	sc := Scenarios(models.Levels{Pivot: 1.085, R1: 1.09, R2: 1.095, S1: 1.08, S2: 1.075}, 4)
	require.Len(t, sc, 2)
	assert.Contains(t, sc[0], "1.0900")
	assert.Contains(t, sc[1], "1.0750")
}
