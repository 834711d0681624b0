// internal/telemetry/reporter.go
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/tamzrod/sim-bridge/internal/liveness"
)

// DefaultInterval is the reporting period.
const DefaultInterval = time.Second

const bitsPerMegabit = 1_048_576

// Throughput converts bytes over elapsed into megabits per second
// (1 Mb = 1048576 bits). A non-positive interval reports 0.
func Throughput(bytes uint64, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(bytes) * 8 / (secs * bitsPerMegabit)
}

// ViewerCounter is satisfied by the client registry.
type ViewerCounter interface {
	Len() int
}

// Report is one reporting interval.
type Report struct {
	At         time.Time
	Elapsed    time.Duration
	Bytes      uint64
	Mbps       float64
	PeerOnline bool
	PeerSeen   bool
	Viewers    int
	Dropped    uint64 // frames dropped during the interval
}

// String is the human-readable status line.
func (r Report) String() string {
	peer := "OFFLINE"
	if r.PeerOnline {
		peer = "ONLINE"
	}
	return fmt.Sprintf("[STATUS] upstream=%.2f Mbps peer=%s viewers=%d dropped=%d",
		r.Mbps, peer, r.Viewers, r.Dropped)
}

// Sink receives every report after the status line is written.
type Sink interface {
	Observe(Report)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Report)

// Observe calls f(r).
func (f SinkFunc) Observe(r Report) { f(r) }

// Config is the reporter's runtime config.
type Config struct {
	Interval time.Duration
	Out      io.Writer // status lines; defaults to stdout
}

// Reporter emits one status line per interval.
// It is purely observational.
type Reporter struct {
	cfg      Config
	counters *Counters
	peer     liveness.Reader
	viewers  ViewerCounter
	sinks    []Sink
	logger   *slog.Logger

	intervalStart time.Time
	lastDropped   uint64
}

// NewReporter wires a reporter. viewers may be nil.
func NewReporter(cfg Config, counters *Counters, peer liveness.Reader, viewers ViewerCounter, logger *slog.Logger, sinks ...Sink) *Reporter {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		cfg:      cfg,
		counters: counters,
		peer:     peer,
		viewers:  viewers,
		sinks:    sinks,
		logger:   logger,
	}
}

// Start sets the beginning of the first interval.
func (r *Reporter) Start(now time.Time) {
	r.intervalStart = now
	r.lastDropped = r.counters.Dropped()
}

// Tick closes the current interval at now and starts the next one.
func (r *Reporter) Tick(now time.Time) Report {
	if r.intervalStart.IsZero() {
		r.intervalStart = now
	}

	bytes := r.counters.drainReceived()
	elapsed := now.Sub(r.intervalStart)

	dropped := r.counters.Dropped()
	rep := Report{
		At:      now,
		Elapsed: elapsed,
		Bytes:   bytes,
		Mbps:    Throughput(bytes, elapsed),
		Dropped: dropped - r.lastDropped,
	}
	r.lastDropped = dropped

	if r.peer != nil {
		st := r.peer.Snapshot()
		rep.PeerOnline = st.Online
		rep.PeerSeen = st.Seen
	}
	if r.viewers != nil {
		rep.Viewers = r.viewers.Len()
	}

	if _, err := fmt.Fprintln(r.cfg.Out, rep.String()); err != nil {
		r.logger.Debug("status line write failed", "error", err)
	}

	for _, s := range r.sinks {
		s.Observe(rep)
	}

	r.intervalStart = now
	return rep
}

// Run ticks every Interval until ctx ends.
func (r *Reporter) Run(ctx context.Context) {
	r.Start(time.Now())

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Tick(now)
		}
	}
}
