// Package levels derives pivot levels and a directional bias from a quote.
package levels

import (
	"fmt"
	"math"

	"MarketBrief/internal/domain/models"
)

// Bias labels.
const (
	BiasBullish = "bullish"
	BiasBearish = "bearish"
	BiasNeutral = "neutral"
)

// biasThreshold is the absolute change percent beyond which the bias is directional.
const biasThreshold = 0.3

// Compute returns classic floor pivots using the current price as close.
// It returns false when the snapshot has no live price or no range.
func Compute(s models.MarketDataSnapshot, decimals int) (models.Levels, bool) {
	if !s.HasPrice() {
		return models.Levels{}, false
	}
	high, low := s.High, s.Low
	if high <= 0 || low <= 0 || high < low {
		return models.Levels{}, false
	}
	high = math.Max(high, s.Price)
	low = math.Min(low, s.Price)
	if high == low {
		return models.Levels{}, false
	}

	p := (high + low + s.Price) / 3
	rng := high - low
	return models.Levels{
		Pivot:         round(p, decimals),
		R1:            round(2*p-low, decimals),
		S1:            round(2*p-high, decimals),
		R2:            round(p+rng, decimals),
		S2:            round(p-rng, decimals),
		DayHigh:       high,
		DayLow:        low,
		PreviousClose: s.PreviousClose,
		Bias:          Bias(s.ChangePercent),
	}, true
}

// Bias classifies a daily change percent.
func Bias(changePercent float64) string {
	switch {
	case changePercent >= biasThreshold:
		return BiasBullish
	case changePercent <= -biasThreshold:
		return BiasBearish
	default:
		return BiasNeutral
	}
}

// Scenarios describes the bull and bear paths around the pivots.
func Scenarios(l models.Levels, decimals int) []string {
	f := func(v float64) string { return fmt.Sprintf("%.*f", decimals, v) }
	return []string{
		fmt.Sprintf("Bullish: hold above %s pivot, targets %s then %s.", f(l.Pivot), f(l.R1), f(l.R2)),
		fmt.Sprintf("Bearish: lose %s pivot, targets %s then %s.", f(l.Pivot), f(l.S1), f(l.S2)),
	}
}

func round(v float64, decimals int) float64 {
	if decimals < 0 {
		decimals = 0
	}
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
