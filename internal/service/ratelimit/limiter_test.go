package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestAllowRefills(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewWithClock(func() time.Time { return now })

	assert.True(t, l.Allow("a", 2, 1))
	assert.True(t, l.Allow("a", 2, 1))
	assert.False(t, l.Allow("a", 2, 1))
	assert.True(t, l.Allow("b", 2, 1), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a", 2, 1))
	assert.False(t, l.Allow("a", 2, 1))

	now = now.Add(time.Hour)
	assert.True(t, l.Allow("a", 2, 1))
	assert.True(t, l.Allow("a", 2, 1))
	assert.False(t, l.Allow("a", 2, 1), "refill is capped at capacity")
}

func TestSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewWithClock(func() time.Time { return now })
	l.Allow("old", 5, 1)
	now = now.Add(10 * time.Minute)
	l.Allow("new", 5, 1)

	assert.Equal(t, 1, l.Sweep(5*time.Minute))
	assert.Equal(t, 1, l.Len())
}

func TestWaitReportsThrottle(t *testing.T) {
	lim := rate.NewLimiter(rate.Every(time.Minute), 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, Wait(ctx, lim))

	err := Wait(ctx, lim)
	assert.ErrorIs(t, err, ErrThrottled)

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	err = Wait(cancelled, lim)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrThrottled)
}
