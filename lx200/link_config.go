package lx200

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rodot-/tellascope/internal/clock"
	"github.com/Rodot-/tellascope/logger"
)

// Default link settings.
const (
	DefaultDelay           = 10 * time.Millisecond // inter-command turnaround delay
	DefaultExchangeTimeout = 2 * time.Second       // per-exchange deadline when the context has none
	DefaultReadChunk       = 64                    // max bytes per Channel.Read
	DefaultNAKLogInterval  = time.Second           // min interval between "device busy" warnings
)

// Setting ranges.
const (
	MinDelay = 1 * time.Millisecond
	MaxDelay = 5 * time.Second

	MinExchangeTimeout = 10 * time.Millisecond
	MaxExchangeTimeout = 5 * time.Minute

	MaxReadChunk = 4096
)

// Clock supplies time and context-aware sleeps to the driver.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// LinkConfig holds the configuration of a LinkDriver.
type LinkConfig struct {
	// delay is the documented device turnaround delay, enforced between a send
	// and the next link operation and slept in full after every NAK.
	delay time.Duration

	// exchangeTimeout bounds exchanges whose context carries no deadline.
	exchangeTimeout time.Duration

	readChunk      int
	nakLogInterval time.Duration

	commandSet *CommandSet
	clock      Clock
	logger     logger.Logger
}

// NewLinkConfig creates a LinkConfig with defaults, then applies opts in order.
func NewLinkConfig(opts ...LinkOption) (*LinkConfig, error) {
	cfg := &LinkConfig{
		delay:           DefaultDelay,
		exchangeTimeout: DefaultExchangeTimeout,
		readChunk:       DefaultReadChunk,
		nakLogInterval:  DefaultNAKLogInterval,
		commandSet:      DefaultCommandSet(),
		clock:           clock.Real{},
		logger:          logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.exchangeTimeout <= cfg.delay {
		return nil, fmt.Errorf("lx200: exchange timeout %v must exceed delay %v", cfg.exchangeTimeout, cfg.delay)
	}

	return cfg, nil
}

// Delay returns the device turnaround delay.
func (cfg *LinkConfig) Delay() time.Duration { return cfg.delay }

// ExchangeTimeout returns the default per-exchange deadline.
func (cfg *LinkConfig) ExchangeTimeout() time.Duration { return cfg.exchangeTimeout }

// ReadChunk returns the maximum number of bytes requested per read.
func (cfg *LinkConfig) ReadChunk() int { return cfg.readChunk }

// NAKLogInterval returns the minimum interval between busy-device warnings.
func (cfg *LinkConfig) NAKLogInterval() time.Duration { return cfg.nakLogInterval }

// CommandSet returns the command set used to validate arguments.
func (cfg *LinkConfig) CommandSet() *CommandSet { return cfg.commandSet }

// GetLogger returns the configured logger.
func (cfg *LinkConfig) GetLogger() logger.Logger { return cfg.logger }

// --- LinkOption ---

// LinkOption is a functional option for configuring a LinkConfig.
type LinkOption interface {
	apply(*LinkConfig) error
}

type linkOptFunc func(*LinkConfig) error

func (f linkOptFunc) apply(cfg *LinkConfig) error { return f(cfg) }

// WithDelay sets the device turnaround delay. Range: 1ms–5s.
func WithDelay(d time.Duration) LinkOption {
	return linkOptFunc(func(cfg *LinkConfig) error {
		if d < MinDelay || d > MaxDelay {
			return fmt.Errorf("lx200: delay %v out of range [%v, %v]", d, MinDelay, MaxDelay)
		}
		cfg.delay = d

		return nil
	})
}

// WithExchangeTimeout sets the deadline applied to exchanges whose context has none.
// Range: 10ms–5m, and it must exceed the delay.
func WithExchangeTimeout(d time.Duration) LinkOption {
	return linkOptFunc(func(cfg *LinkConfig) error {
		if d < MinExchangeTimeout || d > MaxExchangeTimeout {
			return fmt.Errorf("lx200: exchange timeout %v out of range [%v, %v]", d, MinExchangeTimeout, MaxExchangeTimeout)
		}
		cfg.exchangeTimeout = d

		return nil
	})
}

// WithReadChunk sets the maximum bytes per Channel.Read. 1 reads byte by byte.
func WithReadChunk(n int) LinkOption {
	return linkOptFunc(func(cfg *LinkConfig) error {
		if n < 1 || n > MaxReadChunk {
			return fmt.Errorf("lx200: read chunk %d out of range [1, %d]", n, MaxReadChunk)
		}
		cfg.readChunk = n

		return nil
	})
}

// WithNAKLogInterval sets the minimum interval between "device busy" warnings.
func WithNAKLogInterval(d time.Duration) LinkOption {
	return linkOptFunc(func(cfg *LinkConfig) error {
		if d < 0 {
			return errors.New("lx200: NAK log interval must not be negative")
		}
		cfg.nakLogInterval = d

		return nil
	})
}

// WithCommandSet replaces the command set used for argument validation.
func WithCommandSet(cs *CommandSet) LinkOption {
	return linkOptFunc(func(cfg *LinkConfig) error {
		if cs == nil {
			return errors.New("lx200: command set must not be nil")
		}
		cfg.commandSet = cs

		return nil
	})
}

// WithClock replaces the clock used for pacing and deadlines.
func WithClock(c Clock) LinkOption {
	return linkOptFunc(func(cfg *LinkConfig) error {
		if c == nil {
			return errors.New("lx200: clock must not be nil")
		}
		cfg.clock = c

		return nil
	})
}

// WithLogger sets the logger receiving send/receive trace events.
func WithLogger(l logger.Logger) LinkOption {
	return linkOptFunc(func(cfg *LinkConfig) error {
		if l == nil {
			return errors.New("lx200: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
