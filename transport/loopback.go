package transport

import (
	"bytes"
	"sync"

	"github.com/Rodot-/tellascope/internal/queue"
	"github.com/Rodot-/tellascope/lx200"
)

// Responder produces the device reply for one complete frame.
// A nil or empty reply means the device stays silent.
type Responder interface {
	Respond(frame []byte) []byte
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(frame []byte) []byte

// Respond calls f(frame).
func (f ResponderFunc) Respond(frame []byte) []byte { return f(frame) }

// LoopbackChannel is an in-memory lx200.Channel.
//
// Bytes written are split into frames; each complete frame is passed to the
// responder and its reply becomes readable. Replies are released in stages:
// every injected NAK is its own stage, so a driver observes one busy signal
// per poll before the reply appears.
type LoopbackChannel struct {
	mu        sync.Mutex
	responder Responder

	outbound []byte
	inbound  []byte
	stages   *queue.Queue[[]byte]

	script *queue.Queue[[]byte]
	naks   int
	fault  error
	closed bool

	frames [][]byte
}

var _ lx200.Channel = (*LoopbackChannel)(nil)

// NewLoopback returns a LoopbackChannel answering frames with r.
// A nil r leaves every frame unanswered unless replies are scripted.
func NewLoopback(r Responder) *LoopbackChannel {
	return &LoopbackChannel{
		responder: r,
		stages:    queue.New[[]byte](4),
		script:    queue.New[[]byte](0),
	}
}

// Script queues raw replies consumed one per frame, ahead of the responder.
func (c *LoopbackChannel) Script(replies ...[]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range replies {
		c.script.Enqueue(append([]byte(nil), r...))
	}
}

// InjectNAKs makes the device answer the next frame with n NAK bytes before
// its reply.
func (c *LoopbackChannel) InjectNAKs(n int) {
	c.mu.Lock()
	c.naks = n
	c.mu.Unlock()
}

// SetFault makes every operation fail with err until it is called with nil.
func (c *LoopbackChannel) SetFault(err error) {
	c.mu.Lock()
	c.fault = err
	c.mu.Unlock()
}

// Frames returns a copy of every complete frame received.
func (c *LoopbackChannel) Frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.frames))
	for i, f := range c.frames {
		out[i] = string(f)
	}

	return out
}

func (c *LoopbackChannel) check() error {
	if c.closed {
		return ErrClosed
	}

	return c.fault
}

// Write accepts p whole. Every complete frame in the outbound bytes is
// recorded and answered.
func (c *LoopbackChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.check(); err != nil {
		return 0, err
	}

	c.outbound = append(c.outbound, p...)
	for {
		end := bytes.IndexByte(c.outbound, '#')
		if end < 0 {
			break
		}
		frame := append([]byte(nil), c.outbound[:end+1]...)
		c.outbound = c.outbound[end+1:]
		c.respond(frame)
	}

	return len(p), nil
}

func (c *LoopbackChannel) respond(frame []byte) {
	c.frames = append(c.frames, frame)

	reply, scripted := c.script.Dequeue()
	if !scripted && c.responder != nil {
		reply = c.responder.Respond(frame)
	}

	for ; c.naks > 0; c.naks-- {
		c.stages.Enqueue([]byte{lx200.NAK})
	}
	if len(reply) > 0 {
		c.stages.Enqueue(append([]byte(nil), reply...))
	}
}

// release moves the next stage into the inbound buffer once it is empty.
func (c *LoopbackChannel) release() {
	if len(c.inbound) > 0 {
		return
	}
	if stage, ok := c.stages.Dequeue(); ok {
		c.inbound = stage
	}
}

// Read returns up to max bytes of the current reply stage.
func (c *LoopbackChannel) Read(max int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.check(); err != nil {
		return nil, err
	}
	c.release()

	n := min(max, len(c.inbound))
	out := append([]byte(nil), c.inbound[:n]...)
	c.inbound = c.inbound[n:]

	return out, nil
}

// BytesAvailable reports the bytes readable from the current reply stage.
func (c *LoopbackChannel) BytesAvailable() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.check(); err != nil {
		return 0, err
	}
	c.release()

	return len(c.inbound), nil
}

// ResetInbound drops readable bytes and every pending reply stage.
func (c *LoopbackChannel) ResetInbound() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.check(); err != nil {
		return err
	}
	c.inbound = nil
	c.stages.Reset()

	return nil
}

// ResetOutbound drops a partially written frame.
func (c *LoopbackChannel) ResetOutbound() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.check(); err != nil {
		return err
	}
	c.outbound = nil

	return nil
}

// Close marks the channel closed.
func (c *LoopbackChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	return nil
}
