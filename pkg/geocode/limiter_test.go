package geocode

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_SpacesCallStarts(t *testing.T) {
	const interval = 40 * time.Millisecond
	l := NewLimiter(interval)
	ctx := context.Background()

	var starts []time.Time
	for range 4 {
		require.NoError(t, l.Wait(ctx))
		starts = append(starts, time.Now())
	}

	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		// Allow a millisecond of scheduler slop on the measured side.
		assert.GreaterOrEqual(t, gap, interval-time.Millisecond, "gap %d", i)
	}
	assert.Equal(t, interval, l.Interval())
}

func TestLimiter_FirstCallDoesNotWait(t *testing.T) {
	l := NewLimiter(time.Hour)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiter_ZeroIntervalIsUnlimited(t *testing.T) {
	l := NewLimiter(0)

	start := time.Now()
	for range 100 {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	l := NewLimiter(time.Hour)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Error(t, l.Wait(ctx))
}
