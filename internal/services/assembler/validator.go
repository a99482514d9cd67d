package assembler

import (
	"fmt"

	"MarketBrief/internal/domain/models"
)

// Warning kinds.
const (
	WarnNoCatalyst   = "no_catalyst"
	WarnNoLevels     = "no_levels"
	WarnNoScenarios  = "no_scenarios"
	WarnNoSizing     = "no_sizing"
	WarnNoSource     = "no_source"
	WarnNoRisk       = "no_risk"
	WarnNoSession    = "no_session"
	WarnCachedData   = "cached_data"
	WarnFallbackData = "fallback_data"
	WarnSourceFailed = "source_failed"
)

// Warning is a validation finding attached to a brief.
type Warning struct {
	Kind    string
	Message string
}

// Validate checks sections against the requirements of every detected intent
// and reports degraded data. Warnings never block the response.
func Validate(in Input, sections []models.ResponseSection) []Warning {
	present := make(map[models.SectionType]bool, len(sections))
	for _, s := range sections {
		present[s.Type] = true
	}

	var out []Warning
	seen := map[string]bool{}
	add := func(kind, msg string) {
		if seen[msg] {
			return
		}
		seen[msg] = true
		out = append(out, Warning{Kind: kind, Message: msg})
	}

	for _, it := range in.Intents {
		for _, req := range it.MustInclude {
			switch req {
			case models.RequireCatalyst:
				if len(in.Catalysts) == 0 {
					add(WarnNoCatalyst, fmt.Sprintf("%s: no catalyst found in news or calendar data", it.Type))
				}
			case models.RequireLevels:
				if !present[models.SectionLevels] {
					add(WarnNoLevels, fmt.Sprintf("%s: key levels unavailable without a live price", it.Type))
				}
			case models.RequireScenarios:
				if !present[models.SectionScenarios] {
					add(WarnNoScenarios, fmt.Sprintf("%s: scenarios unavailable without a live price", it.Type))
				}
			case models.RequireSizing:
				switch {
				case in.Position == nil:
					add(WarnNoSizing, fmt.Sprintf("%s: position size not calculated", it.Type))
				case !in.Position.OK():
					add(WarnNoSizing, fmt.Sprintf("%s: %s", it.Type, in.Position.Error))
				}
			case models.RequireSource:
				if !anySourceOK(in.SourceStatus) {
					add(WarnNoSource, fmt.Sprintf("%s: no live data source responded", it.Type))
				}
			case models.RequireSession:
				if !present[models.SectionHeader] || in.Session.Name == "" {
					add(WarnNoSession, fmt.Sprintf("%s: trading session unknown", it.Type))
				}
			case models.RequireRisk:
				if !present[models.SectionRisk] {
					add(WarnNoRisk, fmt.Sprintf("%s: risk notes missing", it.Type))
				}
			}
		}
	}

	if m := in.MarketData; m != nil {
		switch {
		case m.Cached && m.HasPrice():
			add(WarnCachedData, "market data served from cache")
		case m.IsFallback() && m.Source != "":
			add(WarnFallbackData, fmt.Sprintf("market data unavailable (%s)", m.Source))
		}
	}
	for _, s := range in.SourceStatus {
		if s.OK {
			continue
		}
		reason := s.Fallback
		if s.Error != "" {
			reason = s.Error
		}
		add(WarnSourceFailed, fmt.Sprintf("%s source %s failed: %s", s.Kind, s.Source, reason))
	}
	return out
}

func anySourceOK(st []models.SourceStatus) bool {
	for _, s := range st {
		if s.OK {
			return true
		}
	}
	return false
}

// Messages flattens warnings to their text.
func Messages(ws []Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Message)
	}
	return out
}
