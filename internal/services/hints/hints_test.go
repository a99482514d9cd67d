package hints

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		text string
		want Hints
	}{
		{
			"what's my position size for a $5000 account risking 2% with stop at 2640 and entry 2650?",
			Hints{AccountSize: 5000, RiskPercent: 2, StopLoss: 2640, EntryPrice: 2650},
		},
		{"10k account, 1% risk, buy at 1.0850 sl 1.0800", Hints{AccountSize: 10000, RiskPercent: 1, EntryPrice: 1.085, StopLoss: 1.08}},
		{"$25,000 balance", Hints{AccountSize: 25000}},
		{
			"Gold fell from $2700 today. I have a $5000 account, risking 1%, stop 2690",
			Hints{AccountSize: 5000, RiskPercent: 1, StopLoss: 2690},
		},
		{"account of $12k, what lot size?", Hints{AccountSize: 12000}},
		{"I trade with $3000", Hints{AccountSize: 3000}},
		{"account size 2500", Hints{AccountSize: 2500}},
		{"stop-loss: 98.5, entry price 101", Hints{StopLoss: 98.5, EntryPrice: 101}},
		{"why is gold dropping", Hints{}},
		{"risking 250%", Hints{}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Extract(tt.text)
			assert.InDelta(t, tt.want.AccountSize, got.AccountSize, 1e-9)
			assert.InDelta(t, tt.want.RiskPercent, got.RiskPercent, 1e-9)
			assert.InDelta(t, tt.want.EntryPrice, got.EntryPrice, 1e-9)
			assert.InDelta(t, tt.want.StopLoss, got.StopLoss, 1e-9)
			assert.Equal(t, tt.want.Any(), got.Any())
		})
	}
}
