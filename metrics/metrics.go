// Package metrics exports link counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Rodot-/tellascope/lx200"
)

// Namespace prefixes every exported metric name.
const Namespace = "lx200"

// NewRegistry returns a registry with the Go and process collectors registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// Handler returns the scrape handler for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// LinkCollector exports a LinkDriver's LinkMetrics as counters.
// Values are read from the atomics at scrape time.
type LinkCollector struct {
	counters []prometheus.CounterFunc
}

var _ prometheus.Collector = (*LinkCollector)(nil)

// NewLinkCollector returns a collector for m. labels are attached to every
// counter, typically the port name.
func NewLinkCollector(m *lx200.LinkMetrics, labels prometheus.Labels) *LinkCollector {
	counter := func(name, help string, v interface{ Load() uint64 }) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(v.Load()) })
	}

	return &LinkCollector{counters: []prometheus.CounterFunc{
		counter("exchanges_total", "Exchanges started.", &m.ExchangeCount),
		counter("exchange_errors_total", "Exchanges aborted by a link failure, timeouts included.", &m.ExchangeErrCount),
		counter("timeouts_total", "Exchanges that exceeded their deadline.", &m.TimeoutCount),
		counter("invalid_commands_total", "Commands rejected before any I/O.", &m.InvalidCommandCount),
		counter("naks_total", "NAK bytes received.", &m.NAKCount),
		counter("empty_replies_total", "Exchanges that completed without reply bytes.", &m.EmptyReplyCount),
		counter("sent_bytes_total", "Frame bytes written.", &m.BytesSentCount),
		counter("received_bytes_total", "Bytes read, NAKs included.", &m.BytesRecvCount),
	}}
}

// Describe implements prometheus.Collector.
func (c *LinkCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, counter := range c.counters {
		counter.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *LinkCollector) Collect(ch chan<- prometheus.Metric) {
	for _, counter := range c.counters {
		counter.Collect(ch)
	}
}
