// Package hints pulls position-sizing numbers out of free text.
package hints

import (
	"regexp"
	"strconv"
	"strings"
)

// Hints are the sizing inputs found in a message. Zero means not mentioned.
type Hints struct {
	AccountSize float64
	RiskPercent float64
	EntryPrice  float64
	StopLoss    float64
}

const number = `(\d[\d,]*(?:\.\d+)?)`

var (
	// Most specific first; a bare dollar amount is often a price, not the account.
	accountRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b` + number + `\s*(k)?\s*(?:usd|dollars?)?\s+(?:account|acct|balance|capital)\b`),
		regexp.MustCompile(`(?i)\b(?:account|balance|capital)\s*(?:size|of|is|:)?\s*\$?\s*` + number + `\s*(k)?\b`),
		regexp.MustCompile(`(?i)\$\s*` + number + `\s*(k)?\b`),
	}
	riskRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\brisk(?:ing)?\s*(?:of)?\s*` + number + `\s*%`),
		regexp.MustCompile(`(?i)` + number + `\s*%\s*(?:risk|of (?:my )?account)`),
	}
	stopRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:stop[- ]?loss|stop|sl)\s*(?:at|@|=|:|of)?\s*` + number),
	}
	entryRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:entry|enter|entering)\s*(?:price)?\s*(?:at|@|=|:|of)?\s*` + number),
		regexp.MustCompile(`(?i)\b(?:buy|sell|long|short)(?:ing)?\s*(?:at|@|from)\s*` + number),
	}
)

// Extract scans text for account size, risk percent, entry and stop.
func Extract(text string) Hints {
	h := Hints{
		AccountSize: findAmount(accountRes, text),
		RiskPercent: find(riskRes, text),
		StopLoss:    find(stopRes, text),
		EntryPrice:  find(entryRes, text),
	}
	if h.RiskPercent > 100 {
		h.RiskPercent = 0
	}
	return h
}

// Any reports whether at least one sizing input was found.
func (h Hints) Any() bool {
	return h.AccountSize > 0 || h.RiskPercent > 0 || h.EntryPrice > 0 || h.StopLoss > 0
}

func find(res []*regexp.Regexp, text string) float64 {
	for _, re := range res {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, ok := parse(m[1]); ok {
				return v
			}
		}
	}
	return 0
}

func findAmount(res []*regexp.Regexp, text string) float64 {
	for _, re := range res {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, ok := parse(m[1])
		if !ok {
			continue
		}
		if len(m) > 2 && strings.EqualFold(m[2], "k") {
			v *= 1000
		}
		return v
	}
	return 0
}

func parse(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
