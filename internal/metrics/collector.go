// internal/metrics/collector.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/sim-bridge/internal/telemetry"
)

// Drop reasons used as the "reason" label.
const (
	ReasonSizeMismatch  = "size_mismatch"
	ReasonMagicMismatch = "magic_mismatch"
	ReasonNoViewers     = "no_viewers"
)

// Collector owns the bridge's Prometheus metrics.
type Collector struct {
	reg *prometheus.Registry

	bytesReceived   prometheus.Counter
	framesReceived  prometheus.Counter
	framesForwarded prometheus.Counter
	framesDropped   *prometheus.CounterVec
	sendFailures    prometheus.Counter

	throughput prometheus.Gauge
	peerOnline prometheus.Gauge
	viewers    prometheus.Gauge
}

// New registers every metric on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	c := &Collector{reg: reg}

	c.bytesReceived = f.NewCounter(prometheus.CounterOpts{
		Name: "simbridge_upstream_bytes_total",
		Help: "Raw bytes received from the upstream publisher, valid or not",
	})
	c.framesReceived = f.NewCounter(prometheus.CounterOpts{
		Name: "simbridge_upstream_frames_total",
		Help: "Frames pulled from the upstream slot",
	})
	c.framesForwarded = f.NewCounter(prometheus.CounterOpts{
		Name: "simbridge_frames_forwarded_total",
		Help: "Frames broadcast to at least one viewer",
	})
	c.framesDropped = f.NewCounterVec(prometheus.CounterOpts{
		Name: "simbridge_frames_dropped_total",
		Help: "Frames not forwarded, by reason",
	}, []string{"reason"})
	c.sendFailures = f.NewCounter(prometheus.CounterOpts{
		Name: "simbridge_viewer_send_failures_total",
		Help: "Per-session send failures during broadcast",
	})

	c.throughput = f.NewGauge(prometheus.GaugeOpts{
		Name: "simbridge_upstream_throughput_mbps",
		Help: "Upstream throughput over the last reporting interval",
	})
	c.peerOnline = f.NewGauge(prometheus.GaugeOpts{
		Name: "simbridge_peer_online",
		Help: "1 when the heartbeat peer is online",
	})
	c.viewers = f.NewGauge(prometheus.GaugeOpts{
		Name: "simbridge_viewers",
		Help: "Connected viewer sessions at the last report",
	})

	// pre-create label values so they export as 0
	for _, r := range []string{ReasonSizeMismatch, ReasonMagicMismatch, ReasonNoViewers} {
		c.framesDropped.WithLabelValues(r)
	}

	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// WatchCounter exports a monotonically increasing value read on scrape.
func (c *Collector) WatchCounter(name, help string, fn func() uint64) {
	c.reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, func() float64 { return float64(fn()) }))
}

// FrameReceived accounts one upstream message of n bytes.
func (c *Collector) FrameReceived(n int) {
	c.framesReceived.Inc()
	c.bytesReceived.Add(float64(n))
}

// FrameForwarded counts one broadcast frame.
func (c *Collector) FrameForwarded() { c.framesForwarded.Inc() }

// FrameDropped counts one dropped frame.
func (c *Collector) FrameDropped(reason string) {
	c.framesDropped.WithLabelValues(reason).Inc()
}

// SendFailures adds n failed per-session sends.
func (c *Collector) SendFailures(n int) {
	if n > 0 {
		c.sendFailures.Add(float64(n))
	}
}

// Observe implements telemetry.Sink.
func (c *Collector) Observe(r telemetry.Report) {
	c.throughput.Set(r.Mbps)
	c.viewers.Set(float64(r.Viewers))
	if r.PeerOnline {
		c.peerOnline.Set(1)
	} else {
		c.peerOnline.Set(0)
	}
}
