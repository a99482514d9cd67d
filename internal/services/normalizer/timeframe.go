package normalizer

import (
	"regexp"
	"strings"

	"MarketBrief/internal/domain/models"
)

var timeframeAliases = map[string]models.Timeframe{
	"1m": models.TFM1, "m1": models.TFM1, "1 min": models.TFM1, "1min": models.TFM1, "1 minute": models.TFM1,
	"5m": models.TFM5, "m5": models.TFM5, "5 min": models.TFM5, "5min": models.TFM5, "5 minute": models.TFM5,
	"15m": models.TFM15, "m15": models.TFM15, "15 min": models.TFM15, "15min": models.TFM15, "15 minute": models.TFM15,
	"30m": models.TFM30, "m30": models.TFM30, "30 min": models.TFM30, "30min": models.TFM30, "30 minute": models.TFM30,
	"1h": models.TFH1, "h1": models.TFH1, "1 hour": models.TFH1, "hourly": models.TFH1, "1hr": models.TFH1,
	"4h": models.TFH4, "h4": models.TFH4, "4 hour": models.TFH4, "4hr": models.TFH4,
	"1d": models.TFD1, "d1": models.TFD1, "daily": models.TFD1, "day chart": models.TFD1,
	"1w": models.TFW1, "w1": models.TFW1, "weekly": models.TFW1,
	"monthly": models.TFMN, "mn": models.TFMN, "1mo": models.TFMN,
	// plurals
	"1 minutes": models.TFM1, "1 mins": models.TFM1,
	"5 minutes": models.TFM5, "5 mins": models.TFM5, "5mins": models.TFM5,
	"15 minutes": models.TFM15, "15 mins": models.TFM15, "15mins": models.TFM15,
	"30 minutes": models.TFM30, "30 mins": models.TFM30, "30mins": models.TFM30,
	"1 hours": models.TFH1, "1hrs": models.TFH1,
	"4 hours": models.TFH4, "4 hrs": models.TFH4, "4hrs": models.TFH4,
}

var sortedTimeframes = buildTimeframeAliases(timeframeAliases)

func buildTimeframeAliases(m map[string]models.Timeframe) []alias {
	tmp := make(map[string]string, len(m))
	for k, v := range m {
		tmp[k] = string(v)
	}
	return buildAliases(tmp)
}

var semanticTimeframes = []struct {
	re *regexp.Regexp
	tf models.Timeframe
}{
	{regexp.MustCompile(`(?i)\bscalp(?:ing|s|er)?\b`), models.TFM5},
	{regexp.MustCompile(`(?i)\bintraday\b|\bday ?trad(?:e|ing)\b`), models.TFM15},
	{regexp.MustCompile(`(?i)\bswing(?:s| trade| trading)?\b`), models.TFH4},
	{regexp.MustCompile(`(?i)\blong[- ]?term\b|\bposition trad(?:e|ing)\b|\binvest(?:ing|ment)?\b`), models.TFD1},
}

// ExtractTimeframe resolves the chart resolution named in text, defaulting to H1.
func ExtractTimeframe(text string) models.Timeframe {
	if strings.TrimSpace(text) == "" {
		return models.DefaultTimeframe
	}
	if tf, ok := matchAlias(sortedTimeframes, text); ok {
		return models.Timeframe(tf)
	}
	for _, s := range semanticTimeframes {
		if s.re.MatchString(text) {
			return s.tf
		}
	}
	return models.DefaultTimeframe
}

// NormalizeTimeframe canonicalizes an explicit override, falling back to the default.
func NormalizeTimeframe(s string) models.Timeframe {
	tf := models.Timeframe(strings.ToUpper(strings.TrimSpace(s)))
	if models.IsValidTimeframe(tf) {
		return tf
	}
	if s == "" {
		return models.DefaultTimeframe
	}
	return ExtractTimeframe(s)
}

// ParseTimeframe resolves s strictly: ok is false unless s names a known resolution.
func ParseTimeframe(s string) (models.Timeframe, bool) {
	tf := models.Timeframe(strings.ToUpper(strings.TrimSpace(s)))
	if models.IsValidTimeframe(tf) {
		return tf, true
	}
	if m, ok := matchAlias(sortedTimeframes, s); ok {
		return models.Timeframe(m), true
	}
	return "", false
}
