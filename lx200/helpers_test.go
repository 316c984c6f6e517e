package lx200

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rodot-/tellascope/internal/clock"
	"github.com/Rodot-/tellascope/logger"
)

var testEpoch = time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC)

// scriptChannel is an in-memory Channel answering each write with the next
// scripted reply.
type scriptChannel struct {
	mu       sync.Mutex
	inbound  []byte
	replies  [][]byte
	writes   [][]byte
	resetsIn int
	resetOut int

	// busy makes every poll report one pending NAK.
	busy bool

	writeErr error
	pollErr  error
	readErr  error
	short    int // bytes to drop from each write

	inFlight   atomic.Int32
	overlapped atomic.Bool
}

var _ Channel = (*scriptChannel)(nil)

func newScriptChannel(replies ...string) *scriptChannel {
	ch := &scriptChannel{}
	for _, r := range replies {
		ch.replies = append(ch.replies, []byte(r))
	}

	return ch
}

func (c *scriptChannel) enter() func() {
	if c.inFlight.Add(1) > 1 {
		c.overlapped.Store(true)
	}
	return func() { c.inFlight.Add(-1) }
}

func (c *scriptChannel) Write(p []byte) (int, error) {
	defer c.enter()()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.writes = append(c.writes, append([]byte(nil), p...))
	if len(c.replies) > 0 {
		c.inbound = append(c.inbound, c.replies[0]...)
		c.replies = c.replies[1:]
	}

	return len(p) - c.short, nil
}

func (c *scriptChannel) Read(max int) ([]byte, error) {
	defer c.enter()()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.readErr != nil {
		return nil, c.readErr
	}
	if c.busy {
		return []byte{NAK}, nil
	}
	n := min(max, len(c.inbound))
	out := append([]byte(nil), c.inbound[:n]...)
	c.inbound = c.inbound[n:]

	return out, nil
}

func (c *scriptChannel) BytesAvailable() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pollErr != nil {
		return 0, c.pollErr
	}
	if c.busy {
		return 1, nil
	}

	return len(c.inbound), nil
}

func (c *scriptChannel) ResetInbound() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inbound = nil
	c.resetsIn++

	return nil
}

func (c *scriptChannel) ResetOutbound() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetOut++

	return nil
}

func (c *scriptChannel) preload(b []byte) {
	c.mu.Lock()
	c.inbound = append(c.inbound, b...)
	c.mu.Unlock()
}

func (c *scriptChannel) written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.writes))
	for _, w := range c.writes {
		out = append(out, string(w))
	}

	return out
}

var errBroken = errors.New("port gone")

// newTestDriver creates a LinkDriver on a fake clock with a 10ms delay.
func newTestDriver(t *testing.T, ch Channel, opts ...LinkOption) (*LinkDriver, *clock.Fake) {
	t.Helper()

	fc := clock.NewFake(testEpoch)
	defaults := []LinkOption{
		WithDelay(10 * time.Millisecond),
		WithExchangeTimeout(time.Second),
		WithClock(fc),
		WithLogger(logger.NewMockLogger().AllowAll()),
	}

	cfg, err := NewLinkConfig(append(defaults, opts...)...)
	require.NoError(t, err)

	d, err := NewLinkDriver(ch, cfg)
	require.NoError(t, err)

	return d, fc
}
