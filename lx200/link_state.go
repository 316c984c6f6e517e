package lx200

import "sync/atomic"

// LinkState is the phase of the exchange currently running on a LinkDriver.
type LinkState uint32

const (
	// IdleState means no exchange is in flight.
	IdleState LinkState = iota
	// SendingState covers the buffer resets, the pre-send pacing wait and the write.
	SendingState
	// AwaitingReplyState is the pacing wait between the write and the first poll.
	AwaitingReplyState
	// DrainingState reads inbound bytes until the channel goes quiet.
	DrainingState
)

// String returns the state name.
func (s LinkState) String() string {
	switch s {
	case IdleState:
		return "Idle"
	case SendingState:
		return "Sending"
	case AwaitingReplyState:
		return "AwaitingReply"
	case DrainingState:
		return "Draining"
	default:
		return "Unknown"
	}
}

// AtomicLinkState holds a LinkState readable from any goroutine.
type AtomicLinkState struct {
	state atomic.Uint32
}

// String returns the name of the current state.
func (st *AtomicLinkState) String() string {
	return st.Get().String()
}

// Get returns the current state.
func (st *AtomicLinkState) Get() LinkState {
	return LinkState(st.state.Load())
}

// Set stores state unconditionally.
func (st *AtomicLinkState) Set(state LinkState) {
	st.state.Store(uint32(state))
}

// ToSending moves Idle to Sending.
func (st *AtomicLinkState) ToSending() bool {
	return st.state.CompareAndSwap(uint32(IdleState), uint32(SendingState))
}

// ToAwaitingReply moves Sending to AwaitingReply.
func (st *AtomicLinkState) ToAwaitingReply() bool {
	return st.state.CompareAndSwap(uint32(SendingState), uint32(AwaitingReplyState))
}

// ToDraining moves AwaitingReply to Draining.
func (st *AtomicLinkState) ToDraining() bool {
	return st.state.CompareAndSwap(uint32(AwaitingReplyState), uint32(DrainingState))
}

// ToIdle returns to Idle from any state.
func (st *AtomicLinkState) ToIdle() {
	st.Set(IdleState)
}
