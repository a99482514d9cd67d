package breaker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(t *testing.T) (*Breaker, *clock, *[]State) {
	t.Helper()
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	var transitions []State
	b := New("test", DefaultConfig(), WithClock(c.Now), WithOnStateChange(func(_ string, _, to State) {
		transitions = append(transitions, to)
	}))
	return b, c, &transitions
}

func fail(t *testing.T, b *Breaker, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, b.Allow())
		b.Failure()
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, _, _ := newTestBreaker(t)
	fail(t, b, 2)
	assert.Equal(t, Closed, b.State())
	fail(t, b, 1)
	assert.Equal(t, Open, b.State())
	assert.ErrorIs(t, b.Allow(), ErrOpen)
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b, _, _ := newTestBreaker(t)
	fail(t, b, 2)
	require.NoError(t, b.Allow())
	b.Success()
	fail(t, b, 2)
	assert.Equal(t, Closed, b.State())
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b, c, transitions := newTestBreaker(t)
	fail(t, b, 3)

	c.Advance(29 * time.Second)
	assert.ErrorIs(t, b.Allow(), ErrOpen)

	c.Advance(time.Second)
	require.NoError(t, b.Allow())
	assert.Equal(t, HalfOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrOpen, "only one trial call at a time")

	b.Success()
	assert.Equal(t, HalfOpen, b.State())
	require.NoError(t, b.Allow())
	b.Success()
	assert.Equal(t, Closed, b.State())

	assert.Equal(t, []State{Open, HalfOpen, Closed}, *transitions)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b, c, _ := newTestBreaker(t)
	fail(t, b, 3)
	c.Advance(30 * time.Second)
	require.NoError(t, b.Allow())
	b.Failure()
	assert.Equal(t, Open, b.State())
	assert.ErrorIs(t, b.Allow(), ErrOpen)

	snap := b.Snapshot()
	assert.Equal(t, "test", snap.Name)
	assert.Equal(t, c.Now().Add(30*time.Second), snap.NextProbe)
}

func TestBreakerConcurrentUse(t *testing.T) {
	b := New("concurrent", Config{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if b.Allow() != nil {
				return
			}
			if i%2 == 0 {
				b.Failure()
			} else {
				b.Success()
			}
		}(i)
	}
	wg.Wait()
	assert.Contains(t, []State{Closed, Open, HalfOpen}, b.State())
}

func TestStateLevel(t *testing.T) {
	assert.Equal(t, 0, Closed.Level())
	assert.Equal(t, 1, HalfOpen.Level())
	assert.Equal(t, 2, Open.Level())
}

func TestBreakerReleaseRecordsNothing(t *testing.T) {
	b, c, _ := newTestBreaker(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, b.Allow())
		b.Release()
	}
	assert.Equal(t, Closed, b.State())

	fail(t, b, 3)
	c.Advance(31 * time.Second)
	require.NoError(t, b.Allow())
	assert.ErrorIs(t, b.Allow(), ErrOpen, "only one trial call in HALF_OPEN")
	b.Release()
	require.NoError(t, b.Allow(), "released trial slot is free again")
	assert.Equal(t, HalfOpen, b.State())
}
