package clock

import (
	"context"
	"sync"
	"time"
)

// Fake is a manually driven Clock. Sleep never blocks: it records the
// requested duration and advances the fake time by it.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
	onTick func(time.Time)
}

var _ Clock = (*Fake)(nil)

// NewFake returns a Fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	f.mu.Lock()
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	now, hook := f.now, f.onTick
	f.mu.Unlock()

	if hook != nil {
		hook(now)
	}

	return nil
}

// Advance moves the fake time forward by d without recording a sleep.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Sleeps returns a copy of every positive duration passed to Sleep.
func (f *Fake) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]time.Duration, len(f.sleeps))
	copy(out, f.sleeps)

	return out
}

// OnSleep registers a hook invoked with the new time after every Sleep.
func (f *Fake) OnSleep(hook func(time.Time)) {
	f.mu.Lock()
	f.onTick = hook
	f.mu.Unlock()
}
