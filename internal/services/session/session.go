// Package session reports which forex trading sessions are active at a given time.
package session

import (
	"strings"
	"time"

	"MarketBrief/internal/domain/models"
)

// Session names.
const (
	Tokyo   = "Tokyo"
	London  = "London"
	NewYork = "New York"
)

// Liquidity and volatility tiers.
const (
	TierNone     = "none"
	TierLow      = "low"
	TierMedium   = "medium"
	TierHigh     = "high"
	TierVeryHigh = "very_high"
)

// window is a half-open UTC hour range [Open, Close).
type window struct {
	Name  string
	Open  int
	Close int
}

func (w window) contains(hour int) bool { return hour >= w.Open && hour < w.Close }

var sessions = []window{
	{Name: Tokyo, Open: 0, Close: 9},
	{Name: London, Open: 8, Close: 17},
	{Name: NewYork, Open: 13, Close: 22},
}

var killZones = []window{
	{Name: "London open", Open: 7, Close: 10},
	{Name: "New York open", Open: 12, Close: 15},
}

// weekendCloseHour is the UTC hour on Friday when the market closes and on Sunday when it reopens.
const weekendCloseHour = 22

// GetMarketSession computes the session state for now, evaluated in UTC.
func GetMarketSession(now time.Time) models.MarketSession {
	t := now.UTC()
	hour := t.Hour()

	if IsWeekend(t) {
		return models.MarketSession{
			Name:           "Weekend",
			IsOpen:         false,
			Liquidity:      TierNone,
			Volatility:     TierLow,
			ActiveSessions: []string{},
		}
	}

	active := make([]string, 0, len(sessions))
	for _, s := range sessions {
		if s.contains(hour) {
			active = append(active, s.Name)
		}
	}

	out := models.MarketSession{
		IsOpen:         true,
		ActiveSessions: active,
		KillZone:       killZone(hour),
	}

	switch {
	case has(active, London) && has(active, NewYork):
		out.Name = "London/New York overlap"
		out.Liquidity, out.Volatility = TierVeryHigh, TierHigh
	case has(active, Tokyo) && has(active, London):
		out.Name = "Tokyo/London overlap"
		out.Liquidity, out.Volatility = TierHigh, TierMedium
	case has(active, London), has(active, NewYork):
		out.Name = active[0]
		out.Liquidity, out.Volatility = TierHigh, TierMedium
	case has(active, Tokyo):
		out.Name = Tokyo
		out.Liquidity, out.Volatility = TierMedium, TierLow
	default:
		out.Name = "Off-hours"
		out.Liquidity, out.Volatility = TierLow, TierLow
	}
	return out
}

// IsWeekend reports whether t falls between the Friday close and the Sunday open.
func IsWeekend(t time.Time) bool {
	t = t.UTC()
	switch t.Weekday() {
	case time.Saturday:
		return true
	case time.Friday:
		return t.Hour() >= weekendCloseHour
	case time.Sunday:
		return t.Hour() < weekendCloseHour
	}
	return false
}

// Describe renders a one-line summary of the session.
func Describe(s models.MarketSession) string {
	if !s.IsOpen {
		return "Markets closed for the weekend; liquidity is none and gaps are possible at the Sunday open."
	}
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteString(" session: liquidity ")
	b.WriteString(s.Liquidity)
	b.WriteString(", volatility ")
	b.WriteString(s.Volatility)
	if s.KillZone != "" {
		b.WriteString(" (")
		b.WriteString(s.KillZone)
		b.WriteString(" kill zone)")
	}
	b.WriteString(".")
	return b.String()
}

func killZone(hour int) string {
	for _, k := range killZones {
		if k.contains(hour) {
			return k.Name
		}
	}
	return ""
}

func has(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
