package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)
	cases := []string{
		"2024-01-01T14:00:00Z",
		"2024-01-01T14:00:00.000Z",
		"2024-01-01T14:00",
		"2024-01-01 14:00",
		strconv.FormatInt(want.Unix(), 10),
		strconv.FormatInt(want.UnixMilli(), 10),
	}
	for _, s := range cases {
		got, ok := ParseTime(s)
		require.True(t, ok, s)
		assert.True(t, want.Equal(got), "%s -> %v", s, got)
	}

	_, ok := ParseTime("yesterday")
	assert.False(t, ok)
	_, ok = ParseTime("")
	assert.False(t, ok)
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	assert.Equal(t, def, ParseTimeDefault("", def))
	assert.Equal(t, def, ParseTimeDefault("nope", def))
}

func TestIntHelpers(t *testing.T) {
	assert.Equal(t, 7, ParseIntDefault("7", 1))
	assert.Equal(t, 1, ParseIntDefault("x", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
	assert.Equal(t, 200, ClampInt(500, 1, 200))
	assert.Equal(t, 1, ClampInt(-3, 1, 200))
	assert.Equal(t, 20, ClampInt(20, 1, 200))
}
