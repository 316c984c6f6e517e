package lx200

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/Rodot-/tellascope/logger"
)

// LinkDriver runs send/wait/receive exchanges over a Channel.
//
// Exchanges are serialized: the link is half-duplex and the device has no
// addressing, so at most one exchange is in flight per driver. Several
// logical devices sharing one physical link must share one LinkDriver.
type LinkDriver struct {
	ch     Channel
	cfg    *LinkConfig
	framer *Framer
	pacer  *Pacer
	clock  Clock
	logger logger.Logger

	// sem serializes exchanges and guards pacer. It is a channel so that
	// waiting for the link honors the caller's context.
	sem   chan struct{}
	state AtomicLinkState

	nakLog  *rate.Sometimes
	metrics LinkMetrics
}

// NewLinkDriver creates a LinkDriver over ch. A nil cfg selects the defaults.
func NewLinkDriver(ch Channel, cfg *LinkConfig) (*LinkDriver, error) {
	if ch == nil {
		return nil, errors.New("lx200: channel is nil")
	}
	if cfg == nil {
		var err error
		if cfg, err = NewLinkConfig(); err != nil {
			return nil, err
		}
	}

	nakLog := &rate.Sometimes{Interval: cfg.nakLogInterval}
	if cfg.nakLogInterval == 0 {
		nakLog = &rate.Sometimes{Every: 1}
	}

	return &LinkDriver{
		ch:     ch,
		cfg:    cfg,
		framer: NewFramer(cfg.commandSet),
		pacer:  NewPacer(cfg.delay),
		clock:  cfg.clock,
		logger: cfg.logger,
		nakLog: nakLog,
		sem:    make(chan struct{}, 1),
	}, nil
}

// Config returns the driver configuration.
func (d *LinkDriver) Config() *LinkConfig { return d.cfg }

// CommandSet returns the command set used for argument validation.
func (d *LinkDriver) CommandSet() *CommandSet { return d.cfg.commandSet }

// Framer returns the framer used to encode commands.
func (d *LinkDriver) Framer() *Framer { return d.framer }

// State returns the phase of the exchange in flight, or IdleState.
func (d *LinkDriver) State() LinkState { return d.state.Get() }

// Metrics returns the driver's counters.
func (d *LinkDriver) Metrics() *LinkMetrics { return &d.metrics }

// Get issues a query mnemonic without argument and returns the raw reply.
func (d *LinkDriver) Get(ctx context.Context, mnemonic string) ([]byte, error) {
	return d.Exchange(ctx, NewCommand(mnemonic, ""))
}

// Send runs an exchange for cmd and discards the reply.
func (d *LinkDriver) Send(ctx context.Context, cmd Command) error {
	_, err := d.Exchange(ctx, cmd)
	return err
}

// Exchange sends cmd and returns the device reply with NAK bytes removed.
//
// An empty reply is a valid outcome. The exchange is bounded by the context
// deadline, or by the configured exchange timeout when the context has none.
//
// Errors:
//   - ErrInvalidCommand: cmd failed validation; no I/O happened.
//   - ErrLinkUnavailable: a channel operation failed.
//   - ErrTimeout: the deadline passed or ctx was cancelled. Both channel
//     buffers have been reset, unless ctx ended while waiting for another
//     exchange to release the link.
func (d *LinkDriver) Exchange(ctx context.Context, cmd Command) ([]byte, error) {
	frame, err := d.framer.Encode(cmd)
	if err != nil {
		d.metrics.incInvalidCommandCount()
		return nil, err
	}

	if err := d.acquire(ctx); err != nil {
		d.metrics.incTimeoutCount()
		return nil, err
	}
	defer d.release()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = d.clock.Now().Add(d.cfg.exchangeTimeout)
	}

	d.metrics.incExchangeCount()

	reply, err := d.exchange(ctx, frame, deadline)
	if err != nil {
		d.metrics.incExchangeErrCount()
		if errors.Is(err, ErrTimeout) {
			d.metrics.incTimeoutCount()
			d.abort()
		}
		d.logger.Debug("lx200: exchange failed",
			"frame", frame.String(),
			"state", d.state.String(),
			"error", err,
		)
	}
	d.state.ToIdle()

	return reply, err
}

// acquire waits for exclusive use of the link until ctx is done.
func (d *LinkDriver) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	select {
	case d.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for link: %w", ErrTimeout, ctx.Err())
	}
}

func (d *LinkDriver) release() { <-d.sem }

func (d *LinkDriver) exchange(ctx context.Context, frame Frame, deadline time.Time) ([]byte, error) {
	if !d.state.ToSending() {
		return nil, d.stateError(SendingState)
	}

	// Anything still buffered belongs to an earlier, possibly incomplete,
	// exchange and cannot be told apart from a new reply.
	if err := d.ch.ResetInbound(); err != nil {
		return nil, linkError("reset inbound", err)
	}
	if err := d.ch.ResetOutbound(); err != nil {
		return nil, linkError("reset outbound", err)
	}

	if err := d.sleep(ctx, deadline, d.pacer.WaitIfNeeded(d.clock.Now())); err != nil {
		return nil, err
	}

	n, err := d.ch.Write(frame)
	d.metrics.addBytesSent(n)
	if err != nil {
		return nil, linkError("write", err)
	}
	if n != len(frame) {
		return nil, fmt.Errorf("%w: short write: %d of %d bytes", ErrLinkUnavailable, n, len(frame))
	}
	// The channel returns from Write once the frame, terminator included, has
	// been handed off, so the response latency is measured from here.
	d.pacer.RecordSend(d.clock.Now())

	d.logger.Debug("lx200: frame sent", "frame", frame.String(), "bytes", n)

	if !d.state.ToAwaitingReply() {
		return nil, d.stateError(AwaitingReplyState)
	}
	if err := d.sleep(ctx, deadline, d.pacer.WaitIfNeeded(d.clock.Now())); err != nil {
		return nil, err
	}

	if !d.state.ToDraining() {
		return nil, d.stateError(DrainingState)
	}

	return d.drain(ctx, frame, deadline)
}

// drain accumulates inbound bytes until the channel reports none available.
func (d *LinkDriver) drain(ctx context.Context, frame Frame, deadline time.Time) ([]byte, error) {
	reply := make([]byte, 0, 32)
	naks := 0

	for {
		if d.expired(ctx, deadline) {
			return nil, fmt.Errorf("%w: draining after %d bytes", ErrTimeout, len(reply))
		}

		avail, err := d.ch.BytesAvailable()
		if err != nil {
			return nil, linkError("poll", err)
		}
		if avail <= 0 {
			break
		}

		chunk, err := d.ch.Read(min(avail, d.cfg.readChunk))
		d.metrics.addBytesRecv(len(chunk))
		if err != nil {
			return nil, linkError("read", err)
		}

		payload, hadNAK := DecodeCandidate(chunk)
		reply = append(reply, payload...)
		if !hadNAK {
			continue
		}

		count := bytes.Count(chunk, []byte{NAK})
		naks += count
		d.metrics.addNAKCount(count)
		d.logger.Debug("lx200: NAK received", "frame", frame.String(), "naks", naks)
		d.nakLog.Do(func() {
			d.logger.Warn("lx200: device busy, backing off",
				"frame", frame.String(),
				"delay", d.cfg.delay,
			)
		})

		// The device needs a full cycle to clear its busy state, not just the
		// remainder of the pacing interval.
		if err := d.sleep(ctx, deadline, d.cfg.delay); err != nil {
			return nil, err
		}
	}

	if len(reply) == 0 {
		d.metrics.incEmptyReplyCount()
	}

	d.logger.Debug("lx200: reply received",
		"frame", frame.String(),
		"bytes", len(reply),
		"naks", naks,
		"reply", string(reply),
	)

	return reply, nil
}

// sleep suspends for dur unless that would cross the deadline or ctx ends first.
func (d *LinkDriver) sleep(ctx context.Context, deadline time.Time, dur time.Duration) error {
	if dur <= 0 {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
		return nil
	}

	if d.clock.Now().Add(dur).After(deadline) {
		return fmt.Errorf("%w: %v wait would pass the deadline", ErrTimeout, dur)
	}

	if err := d.clock.Sleep(ctx, dur); err != nil {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return nil
}

func (d *LinkDriver) expired(ctx context.Context, deadline time.Time) bool {
	return ctx.Err() != nil || !d.clock.Now().Before(deadline)
}

func (d *LinkDriver) stateError(to LinkState) error {
	return fmt.Errorf("lx200: invalid link transition from %s to %s", d.state.Get(), to)
}

// abort discards both channel buffers after an abandoned exchange.
func (d *LinkDriver) abort() {
	if err := d.ch.ResetInbound(); err != nil {
		d.logger.Warn("lx200: reset inbound after abort failed", "error", err)
	}
	if err := d.ch.ResetOutbound(); err != nil {
		d.logger.Warn("lx200: reset outbound after abort failed", "error", err)
	}
}
