package models

// PositionSizeRequest holds the inputs of a sizing calculation. Zero means missing.
type PositionSizeRequest struct {
	AccountSize float64 `json:"account_size" query:"account_size" validate:"gte=0"`
	RiskPercent float64 `json:"risk_percent" query:"risk_percent" default:"1" validate:"gte=0,lte=100"`
	EntryPrice  float64 `json:"entry_price" query:"entry_price" validate:"gte=0"`
	StopLoss    float64 `json:"stop_loss" query:"stop_loss" validate:"gte=0"`
	Instrument  string  `json:"instrument" query:"instrument"`
}

// PositionSizeResult is the outcome of a sizing calculation. Error is set instead of failing.
type PositionSizeResult struct {
	Instrument   string  `json:"instrument,omitempty"`
	RiskAmount   float64 `json:"risk_amount"`
	StopDistance float64 `json:"stop_distance"`
	StopPips     float64 `json:"stop_pips"`
	LotSize      float64 `json:"lot_size"`
	PositionSize float64 `json:"position_size"`
	PipValue     float64 `json:"pip_value"`
	Unit         string  `json:"unit,omitempty"`
	Formula      string  `json:"formula,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// OK reports whether the calculation produced a size.
func (r PositionSizeResult) OK() bool { return r.Error == "" }

// Levels are reference prices derived from the session range.
type Levels struct {
	Pivot         float64 `json:"pivot"`
	R1            float64 `json:"r1"`
	R2            float64 `json:"r2"`
	S1            float64 `json:"s1"`
	S2            float64 `json:"s2"`
	DayHigh       float64 `json:"day_high"`
	DayLow        float64 `json:"day_low"`
	PreviousClose float64 `json:"previous_close"`
	Bias          string  `json:"bias"`
}
