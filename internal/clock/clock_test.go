package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReal_Sleep(t *testing.T) {
	c := Real{}

	start := time.Now()
	require.NoError(t, c.Sleep(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	// pooled timer is reused
	require.NoError(t, c.Sleep(context.Background(), time.Millisecond))
	require.NoError(t, c.Sleep(context.Background(), 0))
}

func TestReal_SleepCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Real{}.Sleep(ctx, time.Minute)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFake(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)

	var ticks []time.Time
	f.OnSleep(func(now time.Time) { ticks = append(ticks, now) })

	require.NoError(t, f.Sleep(context.Background(), 10*time.Millisecond))
	require.NoError(t, f.Sleep(context.Background(), -time.Millisecond))
	f.Advance(5 * time.Millisecond)

	assert.Equal(t, start.Add(15*time.Millisecond), f.Now())
	assert.Equal(t, []time.Duration{10 * time.Millisecond}, f.Sleeps())
	assert.Equal(t, []time.Time{start.Add(10 * time.Millisecond)}, ticks)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, f.Sleep(ctx, time.Second), context.Canceled)
	assert.Len(t, f.Sleeps(), 1)
}
