package intent

import (
	"testing"

	"MarketBrief/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func types(in []models.Intent) []models.IntentType {
	out := make([]models.IntentType, len(in))
	for i, x := range in {
		out[i] = x.Type
	}
	return out
}

func TestDetectIntentsNeverEmpty(t *testing.T) {
	for _, text := range []string{"", "asdfqwerty", "   "} {
		got := DetectIntents(text)
		require.NotEmpty(t, got, text)
		assert.Equal(t, models.IntentAnalysis, got[0].Type)
		assert.InDelta(t, 0.5, got[0].Confidence, 1e-9)
		assert.True(t, got[0].RequiresNews)
		assert.True(t, got[0].RequiresPrice)
	}
}

func TestDetectIntentsMultiple(t *testing.T) {
	got := DetectIntents("Why is gold dropping and what's my position size for a $5000 account risking 2%?")
	assert.Equal(t, []models.IntentType{models.IntentWhyMoved, models.IntentPositionSize}, types(got))
	for _, in := range got {
		assert.InDelta(t, 0.85, in.Confidence, 1e-9)
	}
	assert.Contains(t, got[0].MustInclude, models.RequireCatalyst)
	assert.Contains(t, got[1].MustInclude, models.RequireSizing)
}

func TestDetectIntentsCategories(t *testing.T) {
	tests := []struct {
		text string
		want models.IntentType
	}{
		{"what caused the spike in EURUSD", models.IntentWhyMoved},
		{"any news on oil?", models.IntentNewsImpact},
		{"what's your bias on cable", models.IntentBias},
		{"key support and resistance for gold", models.IntentKeyLevels},
		{"give me a setup on nasdaq", models.IntentTradeSetup},
		{"how many lots should I trade", models.IntentPositionSize},
		{"what's on the calendar this week", models.IntentCalendar},
		{"when is the london open", models.IntentSession},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Contains(t, types(DetectIntents(tt.text)), tt.want)
		})
	}
}

func TestDetectIntentsOrderFollowsRules(t *testing.T) {
	got := types(DetectIntents("levels and bias for gold, and why did it drop?"))
	assert.Equal(t, []models.IntentType{models.IntentWhyMoved, models.IntentBias, models.IntentKeyLevels}, got)
}

func TestNeeds(t *testing.T) {
	sizing := DetectIntents("position size please")
	assert.False(t, NeedsNews(sizing))
	assert.False(t, NeedsPrice(sizing))
	assert.True(t, NeedsNews([]models.Intent{Default()}))
	assert.True(t, NeedsPrice([]models.Intent{Default()}))
}
