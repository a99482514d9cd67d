package catalyst

import "time"

// ScoringConfig holds the point values used to rank catalysts.
type ScoringConfig struct {
	NewsBase           float64 `yaml:"news_base" default:"50"`
	SymbolMention      float64 `yaml:"symbol_mention" default:"25"`
	KeywordMention     float64 `yaml:"keyword_mention" default:"20"`
	FreshBonus         float64 `yaml:"fresh_bonus" default:"20"`
	RecentBonus        float64 `yaml:"recent_bonus" default:"10"`
	Tier1Macro         float64 `yaml:"tier1_macro" default:"20"`
	Tier2Macro         float64 `yaml:"tier2_macro" default:"15"`
	BreakingLanguage   float64 `yaml:"breaking_language" default:"15"`
	DevelopingLanguage float64 `yaml:"developing_language" default:"10"`

	EventBase       float64 `yaml:"event_base" default:"40"`
	MediumImpact    float64 `yaml:"medium_impact" default:"15"`
	HighImpact      float64 `yaml:"high_impact" default:"30"`
	HighImpactTier1 float64 `yaml:"high_impact_tier1" default:"35"`
	CurrencyMatch   float64 `yaml:"currency_match" default:"20"`
	ReleasedFresh   float64 `yaml:"released_fresh" default:"30"`
	DueSoon         float64 `yaml:"due_soon" default:"25"`
	ReleasedRecent  float64 `yaml:"released_recent" default:"20"`
	DueLater        float64 `yaml:"due_later" default:"15"`

	FreshWindow  time.Duration `yaml:"fresh_window" default:"1h"`
	RecentWindow time.Duration `yaml:"recent_window" default:"4h"`

	// SimilarityThreshold drops titles more similar than this to an accepted one.
	SimilarityThreshold float64 `yaml:"similarity_threshold" default:"0.7"`
}

// DefaultScoringConfig returns the stock point table.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		NewsBase:           50,
		SymbolMention:      25,
		KeywordMention:     20,
		FreshBonus:         20,
		RecentBonus:        10,
		Tier1Macro:         20,
		Tier2Macro:         15,
		BreakingLanguage:   15,
		DevelopingLanguage: 10,

		EventBase:       40,
		MediumImpact:    15,
		HighImpact:      30,
		HighImpactTier1: 35,
		CurrencyMatch:   20,
		ReleasedFresh:   30,
		DueSoon:         25,
		ReleasedRecent:  20,
		DueLater:        15,

		FreshWindow:  time.Hour,
		RecentWindow: 4 * time.Hour,

		SimilarityThreshold: 0.7,
	}
}
