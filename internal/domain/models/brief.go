package models

import "time"

// SectionType identifies a block of the assembled response.
type SectionType string

const (
	SectionHeader    SectionType = "header"
	SectionDriver    SectionType = "driver"
	SectionFactors   SectionType = "factors"
	SectionMechanics SectionType = "mechanics"
	SectionLevels    SectionType = "levels"
	SectionScenarios SectionType = "scenarios"
	SectionSizing    SectionType = "sizing"
	SectionRisk      SectionType = "risk"
	SectionWatch     SectionType = "watch"
	SectionFooter    SectionType = "footer"
)

// SectionOrder is the fixed display order of sections.
var SectionOrder = []SectionType{
	SectionHeader, SectionDriver, SectionFactors, SectionMechanics, SectionLevels,
	SectionScenarios, SectionSizing, SectionRisk, SectionWatch, SectionFooter,
}

// ResponseSection is one labelled block of text.
type ResponseSection struct {
	Type    SectionType `json:"type"`
	Content string      `json:"content"`
}

// SourceStatus reports how one upstream behaved during a run.
type SourceStatus struct {
	Source      string `json:"source"`
	Kind        string `json:"kind"`
	OK          bool   `json:"ok"`
	Cached      bool   `json:"cached,omitempty"`
	CircuitOpen bool   `json:"circuit_open,omitempty"`
	Fallback    string `json:"fallback,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BriefRequest is the pipeline input. Non-zero overrides win over values parsed from Message.
type BriefRequest struct {
	Message     string    `json:"message" validate:"required,max=2000"`
	Instrument  string    `json:"instrument,omitempty" validate:"omitempty,max=12"`
	Timeframe   Timeframe `json:"timeframe,omitempty"`
	AccountSize float64   `json:"account_size,omitempty" validate:"gte=0"`
	RiskPercent float64   `json:"risk_percent,omitempty" validate:"gte=0,lte=100"`
	EntryPrice  float64   `json:"entry_price,omitempty" validate:"gte=0"`
	StopLoss    float64   `json:"stop_loss,omitempty" validate:"gte=0"`
}

// Brief is the structured result of one pipeline run.
type Brief struct {
	ID                 string              `json:"id"`
	Message            string              `json:"message"`
	Instrument         string              `json:"instrument,omitempty"`
	Spec               *InstrumentSpec     `json:"spec,omitempty"`
	Timeframe          Timeframe           `json:"timeframe"`
	Intents            []Intent            `json:"intents"`
	Session            MarketSession       `json:"session"`
	MarketData         *MarketDataSnapshot `json:"market_data,omitempty"`
	Catalysts          []Catalyst          `json:"catalysts"`
	UpcomingEvents     []CalendarEvent     `json:"upcoming_events,omitempty"`
	Levels             *Levels             `json:"levels,omitempty"`
	Position           *PositionSizeResult `json:"position,omitempty"`
	Sections           []ResponseSection   `json:"sections"`
	Text               string              `json:"text"`
	ValidationWarnings []string            `json:"validation_warnings"`
	SourceStatus       []SourceStatus      `json:"source_status,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	LatencyMs          int64               `json:"latency_ms"`
}

// Section returns the section of type t, if present.
func (b *Brief) Section(t SectionType) (ResponseSection, bool) {
	for _, s := range b.Sections {
		if s.Type == t {
			return s, true
		}
	}
	return ResponseSection{}, false
}

// BriefRecord is the stored summary of a brief.
type BriefRecord struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Instrument  string    `json:"instrument"`
	Timeframe   string    `json:"timeframe"`
	Message     string    `json:"message"`
	Intents     []string  `json:"intents"`
	Session     string    `json:"session"`
	Price       float64   `json:"price"`
	PriceSource string    `json:"price_source"`
	TopCatalyst string    `json:"top_catalyst"`
	Warnings    []string  `json:"warnings"`
	Text        string    `json:"text"`
	LatencyMs   int64     `json:"latency_ms"`
}

// Record flattens a brief for storage.
func (b *Brief) Record() BriefRecord {
	r := BriefRecord{
		ID:         b.ID,
		CreatedAt:  b.CreatedAt.UTC(),
		Instrument: b.Instrument,
		Timeframe:  string(b.Timeframe),
		Message:    b.Message,
		Intents:    make([]string, 0, len(b.Intents)),
		Session:    b.Session.Name,
		Warnings:   b.ValidationWarnings,
		Text:       b.Text,
		LatencyMs:  b.LatencyMs,
	}
	for _, it := range b.Intents {
		r.Intents = append(r.Intents, string(it.Type))
	}
	if b.MarketData != nil {
		r.Price, r.PriceSource = b.MarketData.Price, b.MarketData.Source
	}
	if len(b.Catalysts) > 0 {
		r.TopCatalyst = b.Catalysts[0].Title
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	return r
}
