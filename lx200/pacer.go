package lx200

import "time"

// Pacer enforces the minimum interval between a send and the next link
// operation. It is owned by a single LinkDriver and is not goroutine-safe.
type Pacer struct {
	delay    time.Duration
	lastSend time.Time
	sent     bool
}

// NewPacer returns a Pacer with the given inter-command delay.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Delay returns the configured inter-command delay.
func (p *Pacer) Delay() time.Duration { return p.delay }

// RecordSend stores now as the last send time.
func (p *Pacer) RecordSend(now time.Time) {
	p.lastSend = now
	p.sent = true
}

// WaitIfNeeded returns delay - (now - lastSend). A non-positive result means
// no suspension is required. Before the first send it returns 0.
func (p *Pacer) WaitIfNeeded(now time.Time) time.Duration {
	if !p.sent {
		return 0
	}

	return p.delay - now.Sub(p.lastSend)
}
