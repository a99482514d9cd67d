// Package assembler turns pipeline results into ordered response sections and
// checks them against what each detected intent requires.
package assembler

import (
	"fmt"
	"strings"
	"time"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/services/catalyst"
	"MarketBrief/internal/services/levels"
	"MarketBrief/internal/services/session"
	"MarketBrief/internal/services/sizing"
)

// Input is everything the pipeline gathered for one message.
type Input struct {
	Instrument      string
	Spec            *models.InstrumentSpec
	Timeframe       models.Timeframe
	Intents         []models.Intent
	Session         models.MarketSession
	MarketData      *models.MarketDataSnapshot
	Catalysts       []models.Catalyst
	UpcomingEvents  []models.CalendarEvent
	Levels          *models.Levels
	Position        *models.PositionSizeResult
	SizingRequested bool
	SourceStatus    []models.SourceStatus
	Now             time.Time
}

func (in Input) hasLivePrice() bool { return in.MarketData != nil && in.MarketData.HasPrice() }

func (in Input) requires(r models.Requirement) bool {
	for _, it := range in.Intents {
		for _, m := range it.MustInclude {
			if m == r {
				return true
			}
		}
	}
	return false
}

func (in Input) has(t models.IntentType) bool { return models.HasIntent(in.Intents, t) }

func (in Input) decimals() int {
	if in.Spec != nil {
		return in.Spec.DecimalPlaces
	}
	return 2
}

type builder struct {
	typ   models.SectionType
	build func(Input) (string, bool)
}

var builders = []builder{
	{models.SectionHeader, header},
	{models.SectionDriver, driver},
	{models.SectionFactors, factors},
	{models.SectionMechanics, mechanics},
	{models.SectionLevels, levelsSection},
	{models.SectionScenarios, scenarios},
	{models.SectionSizing, sizingSection},
	{models.SectionRisk, risk},
	{models.SectionWatch, watch},
	{models.SectionFooter, footer},
}

// Assemble builds every section whose precondition holds, in display order.
func Assemble(in Input) []models.ResponseSection {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	out := make([]models.ResponseSection, 0, len(builders))
	for _, b := range builders {
		if content, ok := b.build(in); ok {
			out = append(out, models.ResponseSection{Type: b.typ, Content: content})
		}
	}
	return out
}

// Render joins section contents with blank lines.
func Render(sections []models.ResponseSection) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s.Content) != "" {
			parts = append(parts, s.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

func header(in Input) (string, bool) {
	name := in.Instrument
	if name == "" {
		name = "Market brief"
	}
	tf := in.Timeframe
	if tf == "" {
		tf = models.DefaultTimeframe
	}
	return fmt.Sprintf("%s · %s · %s", name, tf, session.Describe(in.Session)), true
}

func wantsDriver(in Input) bool {
	return in.requires(models.RequireCatalyst) || in.has(models.IntentBias)
}

const noCatalystText = "No clear catalyst found in the latest news or calendar data. " +
	"Treat the move as positioning or flow driven and confirm with price action before acting."

func driver(in Input) (string, bool) {
	if !wantsDriver(in) {
		return "", false
	}
	top, ok := catalyst.TopDriver(in.Catalysts)
	if !ok {
		return noCatalystText, true
	}
	return "Primary driver: " + describeCatalyst(top, in.Now), true
}

func factors(in Input) (string, bool) {
	if !wantsDriver(in) {
		return "", false
	}
	rest := catalyst.SupportingFactors(in.Catalysts)
	if len(rest) == 0 {
		return "", false
	}
	lines := []string{"Supporting factors:"}
	for _, c := range rest {
		lines = append(lines, "- "+describeCatalyst(c, in.Now))
	}
	return strings.Join(lines, "\n"), true
}

func describeCatalyst(c models.Catalyst, now time.Time) string {
	var meta []string
	switch c.Type {
	case models.CatalystEconomic:
		if c.Currency != "" {
			meta = append(meta, c.Currency)
		}
		if c.Impact != "" {
			meta = append(meta, c.Impact+" impact")
		}
		if c.Actual != "" {
			meta = append(meta, "actual "+c.Actual)
		}
		if c.Forecast != "" {
			meta = append(meta, "forecast "+c.Forecast)
		}
	default:
		if c.Source != "" {
			meta = append(meta, c.Source)
		}
	}
	if !c.Time.IsZero() {
		meta = append(meta, relative(c.Time, now))
	}
	meta = append(meta, fmt.Sprintf("confidence %.0f%%", c.Confidence*100))
	return fmt.Sprintf("%s (%s)", c.Title, strings.Join(meta, ", "))
}

func relative(t, now time.Time) string {
	d := now.Sub(t)
	future := d < 0
	if future {
		d = -d
	}
	var s string
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		s = fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		s = fmt.Sprintf("%dh", int(d.Hours()))
	default:
		s = fmt.Sprintf("%dd", int(d.Hours()/24))
	}
	if future {
		return "in " + s
	}
	return s + " ago"
}

func mechanics(in Input) (string, bool) {
	if !in.hasLivePrice() {
		return "", false
	}
	if !in.has(models.IntentWhyMoved) && !in.has(models.IntentAnalysis) && !in.has(models.IntentBias) {
		return "", false
	}
	m := in.MarketData
	dp := in.decimals()
	s := fmt.Sprintf("Price %.*f (%+.2f%% on the day", dp, m.Price, m.ChangePercent)
	if m.High > 0 && m.Low > 0 {
		s += fmt.Sprintf(", range %.*f to %.*f", dp, m.Low, dp, m.High)
	}
	s += ") via " + m.Source
	if m.Cached {
		s += " (cached)"
	}
	s += "."
	if in.Levels != nil {
		s += " Daily bias reads " + in.Levels.Bias + "."
	}
	return s, true
}

func wantsLevels(in Input) bool {
	return in.requires(models.RequireLevels)
}

func levelsSection(in Input) (string, bool) {
	if !in.hasLivePrice() || in.Levels == nil || !wantsLevels(in) {
		return "", false
	}
	l := in.Levels
	dp := in.decimals()
	return fmt.Sprintf("Key levels: R2 %.*f · R1 %.*f · Pivot %.*f · S1 %.*f · S2 %.*f",
		dp, l.R2, dp, l.R1, dp, l.Pivot, dp, l.S1, dp, l.S2), true
}

func scenarios(in Input) (string, bool) {
	if !in.hasLivePrice() || in.Levels == nil {
		return "", false
	}
	if !in.requires(models.RequireScenarios) && !in.has(models.IntentTradeSetup) {
		return "", false
	}
	return "Scenarios:\n- " + strings.Join(levels.Scenarios(*in.Levels, in.decimals()), "\n- "), true
}

func sizingSection(in Input) (string, bool) {
	if !in.has(models.IntentPositionSize) && !in.SizingRequested {
		return "", false
	}
	if in.Position == nil {
		return "Position size unavailable: provide account size, entry and stop loss.", true
	}
	p := in.Position
	if !p.OK() {
		return sizing.Summary(*p) + " Provide account size, entry and stop loss to size the trade.", true
	}
	lines := []string{
		fmt.Sprintf("Position size: %s %s", trimFloat(p.LotSize), p.Unit),
		fmt.Sprintf("- Risk amount: $%.2f", p.RiskAmount),
		fmt.Sprintf("- Stop distance: %s (%s pips)", trimFloat(p.StopDistance), trimFloat(p.StopPips)),
	}
	if p.PipValue > 0 && p.Unit == "lots" {
		lines = append(lines, fmt.Sprintf("- Pip value: $%.2f per lot", p.PipValue))
	}
	lines = append(lines, "- Formula: "+p.Formula)
	return strings.Join(lines, "\n"), true
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.5f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func risk(in Input) (string, bool) {
	var notes []string
	if !in.Session.IsOpen {
		notes = append(notes, "Market is closed; expect gaps at the reopen.")
	} else if in.Session.Liquidity == session.TierLow {
		notes = append(notes, "Thin liquidity; spreads may widen.")
	}
	for _, e := range in.UpcomingEvents {
		if e.Impact == models.ImpactHigh && e.Time.After(in.Now) && e.Time.Sub(in.Now) <= 4*time.Hour {
			notes = append(notes, fmt.Sprintf("High-impact %s %s %s; consider reducing size.", e.Currency, e.Title, relative(e.Time, in.Now)))
			break
		}
	}
	if in.Position != nil && in.Position.OK() {
		notes = append(notes, "Size assumes the stop is honoured; slippage can exceed the planned risk.")
	}
	if len(notes) == 0 {
		if !in.requires(models.RequireRisk) {
			return "", false
		}
		notes = append(notes, "Define the invalidation level before entry and risk no more than planned.")
	}
	return "Risk: " + strings.Join(notes, " "), true
}

func watch(in Input) (string, bool) {
	var lines []string
	for _, e := range in.UpcomingEvents {
		if !e.Time.After(in.Now) {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s %s (%s, %s)", e.Currency, e.Title, e.Impact, relative(e.Time, in.Now)))
		if len(lines) == 3 {
			break
		}
	}
	if in.Session.KillZone != "" {
		lines = append(lines, "- "+in.Session.KillZone+" kill zone active")
	}
	if len(lines) == 0 {
		return "", false
	}
	return "Watch:\n" + strings.Join(lines, "\n"), true
}

func footer(in Input) (string, bool) {
	var used []string
	seen := map[string]bool{}
	for _, s := range in.SourceStatus {
		if s.OK && !seen[s.Source] {
			seen[s.Source] = true
			used = append(used, s.Source)
		}
	}
	s := "Not financial advice."
	if len(used) > 0 {
		s = "Sources: " + strings.Join(used, ", ") + ". " + s
	}
	return s, true
}
