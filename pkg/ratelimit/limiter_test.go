package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestIntervalWithFakeClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)
	limiter := NewInterval(100*time.Millisecond, clock)

	const downloads = 10
	var stamps []time.Time
	for i := 0; i < downloads; i++ {
		stamps = append(stamps, clock.Now())
		require.NoError(t, limiter.Wait(context.Background()))
	}

	assert.Equal(t, downloads, limiter.Waits())
	assert.Len(t, clock.Sleeps(), downloads)
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), 100*time.Millisecond)
	}
	assert.GreaterOrEqual(t, stamps[downloads-1].Sub(stamps[0]), time.Duration(downloads-1)*100*time.Millisecond)
}

func TestIntervalZeroDoesNotSleep(t *testing.T) {
	clock := NewFakeClock(time.Now())
	limiter := NewInterval(0, clock)

	require.NoError(t, limiter.Wait(context.Background()))
	assert.Empty(t, clock.Sleeps())
	assert.Equal(t, 1, limiter.Waits())
}

func TestIntervalHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	limiter := NewInterval(time.Hour, nil)
	start := time.Now()
	assert.ErrorIs(t, limiter.Wait(ctx), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRealClockSleeps(t *testing.T) {
	limiter := NewInterval(20*time.Millisecond, RealClock())
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestPerSecond(t *testing.T) {
	assert.Equal(t, rate.Inf, PerSecond(0).Limit())
	assert.Equal(t, rate.Limit(3), PerSecond(3).Limit())
	assert.Equal(t, 1, PerSecond(3).Burst())
}
