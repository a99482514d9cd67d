package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"MarketBrief/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, 30*time.Second, c.Fetch.PriceTTL)
	assert.Equal(t, 3, c.Fetch.Breaker.FailureThreshold)
	assert.Equal(t, 125.0, c.Scoring.EventBase+c.Scoring.HighImpactTier1+c.Scoring.CurrencyMatch+c.Scoring.ReleasedFresh)
	assert.Equal(t, 0.7, c.Scoring.SimilarityThreshold)
	assert.Equal(t, "marketbrief:", c.Cache.Redis.Prefix)
	assert.Equal(t, "briefs", c.Kafka.BriefTopic)
	assert.Equal(t, []string{"BTCUSD", "ETHUSD"}, c.Sources.Finnhub.Stream.Symbols)
	assert.False(t, c.Kafka.Enabled)
}

func TestParseOverlaysDefaults(t *testing.T) {
	c, err := Parse([]byte(`
server:
  port: 9090
  cors: false
fetch:
  price_ttl: 10s
  priority:
    index: [twelvedata, yahoo]
`))
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Server.Port)
	assert.False(t, c.Server.CORS)
	assert.Equal(t, 20*time.Second, c.Server.WriteTimeout)
	assert.Equal(t, 10*time.Second, c.Fetch.PriceTTL)
	assert.Equal(t, 2*time.Minute, c.Fetch.NewsTTL)
	assert.Equal(t, []string{"twelvedata", "yahoo"}, c.Fetch.Priority[models.InstrumentIndex])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		ok   bool
	}{
		{"defaults", ``, true},
		{"bad level", "log:\n  level: loud\n", false},
		{"bad port", "server:\n  port: 70000\n", false},
		{"twelvedata without key", "sources:\n  twelvedata:\n    enabled: true\n", false},
		{"stream without rest", "sources:\n  finnhub:\n    stream:\n      enabled: true\n", false},
		{"kafka without brokers", "kafka:\n  enabled: true\n", false},
		{"bad compression", "kafka:\n  compression: brotli\n", false},
		{"bad environment", "environment: prod\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			if tt.ok {
				assert.NoError(t, c.Validate())
			} else {
				assert.Error(t, c.Validate())
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FINNHUB_API_KEY":            "fh-key",
		"TWELVEDATA_API_KEY":         "td-key",
		"KAFKA_BROKERS":              "k1:9092, k2:9092,",
		"MARKETBRIEF_PORT":           "9001",
		"MARKETBRIEF_LOG_LEVEL":      "DEBUG",
		"MARKETBRIEF_REDIS_ADDR":     "redis:6379",
		"MARKETBRIEF_STREAM_SYMBOLS": "BTCUSD",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	c, err := Default()
	require.NoError(t, err)
	require.NoError(t, c.ApplyEnv(lookup))
	require.NoError(t, c.Validate())

	assert.True(t, c.Sources.Finnhub.Enabled)
	assert.Equal(t, "fh-key", c.Sources.Finnhub.APIKey)
	assert.Equal(t, "td-key", c.Sources.TwelveData.APIKey)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, 9001, c.Server.Port)
	assert.Equal(t, "debug", c.Log.Level)
	assert.True(t, c.Cache.Redis.Enabled)
	assert.Equal(t, "redis:6379", c.Cache.Redis.Addr)
	assert.Equal(t, []string{"BTCUSD"}, c.Sources.Finnhub.Stream.Symbols)

	env["MARKETBRIEF_PORT"] = "eighty"
	assert.Error(t, c.ApplyEnv(lookup))
}

func TestLoadWithEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\nserver:\n  port: 7000\n"), 0o600))
	t.Setenv("MARKETBRIEF_PORT", "7001")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, 7001, c.Server.Port)

	c, err = LoadWithEnv(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7001, c.Server.Port)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
