package telescope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rodot-/tellascope/internal/clock"
	"github.com/Rodot-/tellascope/logger"
	"github.com/Rodot-/tellascope/lx200"
	"github.com/Rodot-/tellascope/sim"
	"github.com/Rodot-/tellascope/transport"
)

// rig is a Mount talking to a simulated handset over a loopback channel.
type rig struct {
	mount *Mount
	sim   *sim.Mount
	ch    *transport.LoopbackChannel
	link  *lx200.LinkDriver
	log   *logger.MockLogger
	clock *clock.Fake
}

func newRig(t *testing.T) *rig {
	t.Helper()

	fc := clock.NewFake(time.Date(2024, 3, 2, 4, 4, 59, 0, time.UTC))
	log := logger.NewMockLogger().AllowAll()

	s := sim.NewMount(sim.WithClock(fc), sim.WithLogger(log))
	ch := transport.NewLoopback(s)

	cfg, err := lx200.NewLinkConfig(
		lx200.WithDelay(10*time.Millisecond),
		lx200.WithExchangeTimeout(time.Second),
		lx200.WithClock(fc),
		lx200.WithLogger(log),
	)
	require.NoError(t, err)
	link, err := lx200.NewLinkDriver(ch, cfg)
	require.NoError(t, err)

	return &rig{
		mount: NewMount(link, WithLogger(log), WithClock(fc)),
		sim:   s,
		ch:    ch,
		link:  link,
		log:   log,
		clock: fc,
	}
}
