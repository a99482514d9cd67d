package models

// IntentType names what the user is asking for.
type IntentType string

const (
	IntentWhyMoved     IntentType = "WHY_MOVED"
	IntentNewsImpact   IntentType = "NEWS_IMPACT"
	IntentBias         IntentType = "BIAS"
	IntentKeyLevels    IntentType = "KEY_LEVELS"
	IntentTradeSetup   IntentType = "TRADE_SETUP"
	IntentPositionSize IntentType = "POSITION_SIZE"
	IntentCalendar     IntentType = "CALENDAR"
	IntentSession      IntentType = "SESSION"
	IntentAnalysis     IntentType = "ANALYSIS"
)

// Requirement is an element a response must contain for an intent to be satisfied.
type Requirement string

const (
	RequireCatalyst  Requirement = "catalyst"
	RequireLevels    Requirement = "levels"
	RequireScenarios Requirement = "scenarios"
	RequireSizing    Requirement = "sizing"
	RequireSource    Requirement = "source"
	RequireSession   Requirement = "session"
	RequireRisk      Requirement = "risk"
)

// Intent is one detected request category. Several may be detected per message.
type Intent struct {
	Type          IntentType    `json:"type"`
	Category      string        `json:"category"`
	RequiresNews  bool          `json:"requires_news"`
	RequiresPrice bool          `json:"requires_price"`
	MustInclude   []Requirement `json:"must_include"`
	Confidence    float64       `json:"confidence"`
}

// HasIntent reports whether any of the intents has type t.
func HasIntent(intents []Intent, t IntentType) bool {
	for _, in := range intents {
		if in.Type == t {
			return true
		}
	}
	return false
}
