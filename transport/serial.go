package transport

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/Rodot-/tellascope/logger"
	"github.com/Rodot-/tellascope/lx200"
)

// Port is the subset of serial.Port used by SerialChannel.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Drain() error
	ResetInputBuffer() error
	ResetOutputBuffer() error
	SetReadTimeout(t time.Duration) error
	Close() error
}

var _ Port = serial.Port(nil)

// SerialChannel is an lx200.Channel over a serial port.
//
// The port API has no "bytes waiting" query, so BytesAvailable performs a
// read bounded by the poll timeout and keeps what arrived in a pending
// buffer for the next Read.
type SerialChannel struct {
	mu      sync.Mutex
	port    Port
	name    string
	pending []byte
	buf     []byte
	closed  bool
	logger  logger.Logger
}

var _ lx200.Channel = (*SerialChannel)(nil)

// ErrClosed is returned by operations on a closed channel.
var ErrClosed = errors.New("transport: channel closed")

// OpenSerial opens the serial port named in cfg.
func OpenSerial(cfg Config) (*SerialChannel, error) {
	cfg = cfg.withDefaults()
	cfg.Kind = KindSerial
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	parity, _ := parseParity(cfg.Parity)
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   parity,
		StopBits: stopBits(cfg.StopBits),
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", cfg.Port, err)
	}

	ch, err := NewSerialChannel(port, cfg.Port, cfg.PollTimeout, cfg.Logger)
	if err != nil {
		_ = port.Close()
		return nil, err
	}

	cfg.Logger.Info("transport: serial port opened",
		"port", cfg.Port,
		"baud_rate", cfg.BaudRate,
		"mode", fmt.Sprintf("%d%s%d", cfg.DataBits, strings.ToUpper(cfg.Parity[:1]), cfg.StopBits),
	)

	return ch, nil
}

// NewSerialChannel wraps an already open port.
func NewSerialChannel(port Port, name string, pollTimeout time.Duration, l logger.Logger) (*SerialChannel, error) {
	if port == nil {
		return nil, errors.New("transport: port is nil")
	}
	if l == nil {
		l = logger.GetLogger()
	}
	if err := port.SetReadTimeout(pollTimeout); err != nil {
		return nil, fmt.Errorf("transport: set read timeout: %w", err)
	}

	return &SerialChannel{
		port:   port,
		name:   name,
		buf:    make([]byte, lx200.MaxReadChunk),
		logger: l,
	}, nil
}

// Name returns the serial device name.
func (c *SerialChannel) Name() string { return c.name }

// Write writes p and blocks until it has been transmitted.
func (c *SerialChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}

	n, err := c.port.Write(p)
	if err != nil {
		return n, err
	}
	if err := c.port.Drain(); err != nil {
		return n, fmt.Errorf("drain: %w", err)
	}

	return n, nil
}

// Read returns up to max bytes, pending bytes first. When nothing is pending
// it waits at most one poll timeout for new input.
func (c *SerialChannel) Read(max int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if max <= 0 {
		return nil, nil
	}
	if len(c.pending) == 0 {
		if err := c.poll(); err != nil {
			return nil, err
		}
	}

	n := min(max, len(c.pending))
	out := make([]byte, n)
	copy(out, c.pending)
	c.pending = c.pending[n:]

	return out, nil
}

// BytesAvailable reports the number of bytes that can be read without blocking.
func (c *SerialChannel) BytesAvailable() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}
	if len(c.pending) == 0 {
		if err := c.poll(); err != nil {
			return 0, err
		}
	}

	return len(c.pending), nil
}

func (c *SerialChannel) poll() error {
	n, err := c.port.Read(c.buf)
	if n > 0 {
		c.pending = append(c.pending, c.buf[:n]...)
	}
	if err != nil {
		var perr *serial.PortError
		if errors.As(err, &perr) && perr.Code() == serial.PortClosed {
			return fmt.Errorf("%w: %w", ErrClosed, err)
		}
		return err
	}

	return nil
}

// ResetInbound drops pending bytes and the driver's input buffer.
func (c *SerialChannel) ResetInbound() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.pending = c.pending[:0]

	return c.port.ResetInputBuffer()
}

// ResetOutbound drops bytes queued for transmission.
func (c *SerialChannel) ResetOutbound() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	return c.port.ResetOutputBuffer()
}

// Close closes the port. Closing twice is a no-op.
func (c *SerialChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.port.Close(); err != nil {
		return fmt.Errorf("transport: close %s: %w", c.name, err)
	}
	c.logger.Info("transport: serial port closed", "port", c.name)

	return nil
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("transport: list ports: %w", err)
	}

	return ports, nil
}

func parseParity(name string) (serial.Parity, error) {
	switch strings.ToLower(name) {
	case "", "none", "n":
		return serial.NoParity, nil
	case "odd", "o":
		return serial.OddParity, nil
	case "even", "e":
		return serial.EvenParity, nil
	case "mark", "m":
		return serial.MarkParity, nil
	case "space", "s":
		return serial.SpaceParity, nil
	default:
		return serial.NoParity, fmt.Errorf("transport: unknown parity %q", name)
	}
}

func stopBits(n int) serial.StopBits {
	if n == 2 {
		return serial.TwoStopBits
	}

	return serial.OneStopBit
}
