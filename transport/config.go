package transport

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rodot-/tellascope/logger"
)

// Channel kinds accepted by Open.
const (
	KindSerial   = "serial"
	KindLoopback = "loopback"
)

// Default serial settings. Classic LX200 and Autostar handsets talk 9600 8N1.
const (
	DefaultBaudRate    = 9600
	DefaultDataBits    = 8
	DefaultStopBits    = 1
	DefaultParity      = "none"
	DefaultPollTimeout = 5 * time.Millisecond
)

// Config selects and configures a channel.
type Config struct {
	// Kind is KindSerial or KindLoopback.
	Kind string

	// Port is the serial device name, e.g. /dev/ttyUSB0 or COM3.
	Port     string
	BaudRate int
	DataBits int
	StopBits int
	// Parity is one of none, odd, even, mark, space.
	Parity string

	// PollTimeout bounds each port read used to answer BytesAvailable.
	PollTimeout time.Duration

	// Responder answers frames on a loopback channel.
	Responder Responder

	Logger logger.Logger
}

// DefaultConfig returns a serial Config for port with the default line settings.
func DefaultConfig(port string) Config {
	return Config{
		Kind:        KindSerial,
		Port:        port,
		BaudRate:    DefaultBaudRate,
		DataBits:    DefaultDataBits,
		StopBits:    DefaultStopBits,
		Parity:      DefaultParity,
		PollTimeout: DefaultPollTimeout,
	}
}

// withDefaults fills zero fields.
func (cfg Config) withDefaults() Config {
	if cfg.Kind == "" {
		cfg.Kind = KindSerial
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.DataBits == 0 {
		cfg.DataBits = DefaultDataBits
	}
	if cfg.StopBits == 0 {
		cfg.StopBits = DefaultStopBits
	}
	if cfg.Parity == "" {
		cfg.Parity = DefaultParity
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	return cfg
}

// Validate checks cfg after defaults are applied.
func (cfg Config) Validate() error {
	cfg = cfg.withDefaults()

	switch strings.ToLower(cfg.Kind) {
	case KindSerial:
		if cfg.Port == "" {
			return errors.New("transport: serial port name is required")
		}
		if cfg.BaudRate < 0 {
			return fmt.Errorf("transport: invalid baud rate %d", cfg.BaudRate)
		}
		if cfg.DataBits < 5 || cfg.DataBits > 8 {
			return fmt.Errorf("transport: invalid data bits %d", cfg.DataBits)
		}
		if cfg.StopBits != 1 && cfg.StopBits != 2 {
			return fmt.Errorf("transport: invalid stop bits %d", cfg.StopBits)
		}
		if _, err := parseParity(cfg.Parity); err != nil {
			return err
		}
		if cfg.PollTimeout < time.Millisecond {
			return fmt.Errorf("transport: poll timeout %v below 1ms", cfg.PollTimeout)
		}
	case KindLoopback:
		if cfg.Responder == nil {
			return errors.New("transport: loopback channel needs a responder")
		}
	default:
		return fmt.Errorf("transport: unknown channel kind %q", cfg.Kind)
	}

	return nil
}
