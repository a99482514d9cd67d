package intent

import (
	"regexp"

	"MarketBrief/internal/domain/models"
)

const (
	matchedConfidence = 0.85
	defaultConfidence = 0.5
)

type rule struct {
	intent   models.IntentType
	category string
	news     bool
	price    bool
	require  []models.Requirement
	patterns []*regexp.Regexp
}

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// rules is evaluated in order; every matching rule yields an intent.
var rules = []rule{
	{
		intent: models.IntentWhyMoved, category: "causation", news: true, price: true,
		require: []models.Requirement{models.RequireCatalyst, models.RequireSource},
		patterns: patterns(
			`\bwhy\b.{0,40}\b(mov|drop|fall|fell|rise|rising|rose|rall|pump|dump|crash|spik|surg|tank|plung|jump|soar|down|up|bleed|sell(?:ing)? off)`,
			`\bwhat(?:'s| is| has)?\s+(?:caus|driv|mov|push|happen)`,
			`\breason\s+(?:for|behind)\b`,
			`\bexplain\b.{0,30}\b(move|drop|rally|spike|selloff|sell-off)`,
		),
	},
	{
		intent: models.IntentNewsImpact, category: "news", news: true, price: false,
		require: []models.Requirement{models.RequireCatalyst},
		patterns: patterns(
			`\bnews\b`, `\bheadlines?\b`, `\bcatalysts?\b`,
			`\b(fed|fomc|cpi|nfp|non-?farm|ecb|boe|boj)\b.{0,30}\b(impact|affect|effect|mean)`,
			`\bimpact of\b`,
		),
	},
	{
		intent: models.IntentBias, category: "direction", news: true, price: true,
		require: []models.Requirement{models.RequireLevels, models.RequireScenarios},
		patterns: patterns(
			`\bbias\b`, `\bbullish\b`, `\bbearish\b`, `\boutlook\b`, `\bdirection\b`,
			`\blong or short\b`, `\bbuy or sell\b`, `\bgoing (?:up|down)\b`, `\bforecast\b`, `\bsentiment\b`,
		),
	},
	{
		intent: models.IntentKeyLevels, category: "technical", news: false, price: true,
		require: []models.Requirement{models.RequireLevels},
		patterns: patterns(
			`\blevels?\b`, `\bsupport\b`, `\bresistance\b`, `\bpivots?\b`, `\bs/r\b`, `\bzones?\b`,
		),
	},
	{
		intent: models.IntentTradeSetup, category: "execution", news: false, price: true,
		require: []models.Requirement{models.RequireLevels, models.RequireRisk},
		patterns: patterns(
			`\bsetups?\b`, `\btrade idea\b`, `\bwhere (?:to|should i) (?:enter|buy|sell|get in)\b`,
			`\bentry\b.{0,20}\b(?:point|zone|level)\b`, `\btake[- ]profit\b`, `\btargets?\b`,
		),
	},
	{
		intent: models.IntentPositionSize, category: "risk", news: false, price: false,
		require: []models.Requirement{models.RequireSizing},
		patterns: patterns(
			`\bposition\s*siz`, `\blot\s*siz`, `\bhow (?:many|much) (?:lots?|units|shares|contracts)\b`,
			`\brisk(?:ing)?\s+\d+(?:\.\d+)?\s*%`, `\d+(?:\.\d+)?\s*%\s*risk\b`, `\bhow much (?:should i|to) risk\b`,
		),
	},
	{
		intent: models.IntentCalendar, category: "events", news: true, price: false,
		require: []models.Requirement{models.RequireCatalyst},
		patterns: patterns(
			`\bcalendar\b`, `\bupcoming\b.{0,20}\b(?:events?|data|releases?)\b`, `\bdata release\b`,
			`\bwhat(?:'s| is) (?:coming|scheduled|on) (?:up|today|this week)\b`, `\bthis week\b.{0,20}\b(?:events?|data)\b`,
		),
	},
	{
		intent: models.IntentSession, category: "timing", news: false, price: false,
		require: []models.Requirement{models.RequireSession},
		patterns: patterns(
			`\bsessions?\b`, `\bkill ?zones?\b`, `\b(?:london|new york|ny|tokyo|asian?) (?:open|close)\b`,
			`\bmarket(?:s)? (?:open|hours)\b`, `\bbest time to trade\b`, `\bis the market open\b`,
		),
	},
}

// DetectIntents returns every intent whose patterns match text, in rule order.
// When nothing matches it returns a single ANALYSIS intent with lowered confidence.
func DetectIntents(text string) []models.Intent {
	var out []models.Intent
	for _, r := range rules {
		if matchAny(r.patterns, text) {
			out = append(out, r.toIntent(matchedConfidence))
		}
	}
	if len(out) == 0 {
		out = append(out, Default())
	}
	return out
}

// Default is the generic full-analysis intent.
func Default() models.Intent {
	return models.Intent{
		Type:          models.IntentAnalysis,
		Category:      "analysis",
		RequiresNews:  true,
		RequiresPrice: true,
		MustInclude:   []models.Requirement{models.RequireCatalyst, models.RequireLevels},
		Confidence:    defaultConfidence,
	}
}

// NeedsNews reports whether any intent requires news or calendar data.
func NeedsNews(intents []models.Intent) bool {
	for _, in := range intents {
		if in.RequiresNews {
			return true
		}
	}
	return false
}

// NeedsPrice reports whether any intent requires a live quote.
func NeedsPrice(intents []models.Intent) bool {
	for _, in := range intents {
		if in.RequiresPrice {
			return true
		}
	}
	return false
}

func (r rule) toIntent(confidence float64) models.Intent {
	return models.Intent{
		Type:          r.intent,
		Category:      r.category,
		RequiresNews:  r.news,
		RequiresPrice: r.price,
		MustInclude:   append([]models.Requirement(nil), r.require...),
		Confidence:    confidence,
	}
}

func matchAny(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
