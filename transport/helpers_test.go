package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rodot-/tellascope/internal/clock"
	"github.com/Rodot-/tellascope/logger"
	"github.com/Rodot-/tellascope/lx200"
)

// fakePort is an in-memory Port. Each Read returns the next queued chunk,
// or nothing as if the read timeout expired.
type fakePort struct {
	mu          sync.Mutex
	chunks      [][]byte
	writes      [][]byte
	drains      int
	resetsIn    int
	resetsOut   int
	readTimeout time.Duration
	closed      bool
	readErr     error
}

var _ Port = (*fakePort)(nil)

func (p *fakePort) queue(chunks ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range chunks {
		p.chunks = append(p.chunks, []byte(c))
	}
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.readErr != nil {
		return 0, p.readErr
	}
	if len(p.chunks) == 0 {
		return 0, nil
	}
	n := copy(b, p.chunks[0])
	if n < len(p.chunks[0]) {
		p.chunks[0] = p.chunks[0][n:]
	} else {
		p.chunks = p.chunks[1:]
	}

	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.writes = append(p.writes, append([]byte(nil), b...))

	return len(b), nil
}

func (p *fakePort) Drain() error {
	p.mu.Lock()
	p.drains++
	p.mu.Unlock()

	return nil
}

func (p *fakePort) ResetInputBuffer() error {
	p.mu.Lock()
	p.resetsIn++
	p.chunks = nil
	p.mu.Unlock()

	return nil
}

func (p *fakePort) ResetOutputBuffer() error {
	p.mu.Lock()
	p.resetsOut++
	p.mu.Unlock()

	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.readTimeout = t
	return nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func newTestLink(t *testing.T, ch lx200.Channel) (*lx200.LinkDriver, *clock.Fake) {
	t.Helper()

	fc := clock.NewFake(time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC))
	cfg, err := lx200.NewLinkConfig(
		lx200.WithDelay(10*time.Millisecond),
		lx200.WithExchangeTimeout(time.Second),
		lx200.WithClock(fc),
		lx200.WithLogger(logger.NewMockLogger().AllowAll()),
	)
	require.NoError(t, err)

	d, err := lx200.NewLinkDriver(ch, cfg)
	require.NoError(t, err)

	return d, fc
}
