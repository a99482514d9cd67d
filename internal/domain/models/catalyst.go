package models

import "time"

// Catalyst types.
const (
	CatalystNews     = "news"
	CatalystEconomic = "economic"
)

// Catalyst is a scored candidate driver of price movement.
type Catalyst struct {
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
	Time       time.Time `json:"time"`

	// news
	Source string `json:"source,omitempty"`

	// economic
	Impact   string `json:"impact,omitempty"`
	Currency string `json:"currency,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Forecast string `json:"forecast,omitempty"`
	Previous string `json:"previous,omitempty"`
}
