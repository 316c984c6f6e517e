package lx200

import "sync/atomic"

// LinkMetrics contains atomic metrics for a LinkDriver.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type LinkMetrics struct {
	// ExchangeCount indicates the number of exchanges started (after framing succeeded).
	ExchangeCount atomic.Uint64
	// ExchangeErrCount indicates the number of exchanges aborted by a link failure, including timeouts.
	ExchangeErrCount atomic.Uint64
	// TimeoutCount indicates the number of exchanges that exceeded their deadline.
	TimeoutCount atomic.Uint64
	// InvalidCommandCount indicates the number of commands rejected before any I/O.
	InvalidCommandCount atomic.Uint64
	// NAKCount indicates the number of NAK bytes received.
	NAKCount atomic.Uint64
	// EmptyReplyCount indicates the number of exchanges that completed with no reply bytes.
	EmptyReplyCount atomic.Uint64
	// BytesSentCount indicates the number of frame bytes written.
	BytesSentCount atomic.Uint64
	// BytesRecvCount indicates the number of bytes read, NAKs included.
	BytesRecvCount atomic.Uint64
}

func (m *LinkMetrics) incExchangeCount() {
	m.ExchangeCount.Add(1)
}

func (m *LinkMetrics) incExchangeErrCount() {
	m.ExchangeErrCount.Add(1)
}

func (m *LinkMetrics) incTimeoutCount() {
	m.TimeoutCount.Add(1)
}

func (m *LinkMetrics) incInvalidCommandCount() {
	m.InvalidCommandCount.Add(1)
}

func (m *LinkMetrics) addNAKCount(n int) {
	m.NAKCount.Add(uint64(n)) //nolint:gosec // n is a byte count
}

func (m *LinkMetrics) incEmptyReplyCount() {
	m.EmptyReplyCount.Add(1)
}

func (m *LinkMetrics) addBytesSent(n int) {
	m.BytesSentCount.Add(uint64(n)) //nolint:gosec // n is a byte count
}

func (m *LinkMetrics) addBytesRecv(n int) {
	m.BytesRecvCount.Add(uint64(n)) //nolint:gosec // n is a byte count
}
