// internal/writer/publisher.go
package writer

import (
	"context"
	"log/slog"
	"time"

	"github.com/tamzrod/sim-bridge/internal/slot"
	"github.com/tamzrod/sim-bridge/internal/status"
	"github.com/tamzrod/sim-bridge/internal/telemetry"
)

// Publisher is a telemetry sink that exports each report as a status
// block. Observe never blocks the reporter: a slow endpoint only sees
// the newest report.
type Publisher struct {
	w      StatusWriter
	inbox  *slot.Slot[telemetry.Report]
	logger *slog.Logger

	offline time.Duration // accumulated while the seen peer is offline
	failing bool
}

// NewPublisher wraps w.
func NewPublisher(w StatusWriter, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		w:      w,
		inbox:  slot.New[telemetry.Report](),
		logger: logger,
	}
}

// Observe implements telemetry.Sink.
func (p *Publisher) Observe(r telemetry.Report) {
	_, _ = p.inbox.Put(r)
}

// Skipped counts reports replaced before they were written.
func (p *Publisher) Skipped() uint64 { return p.inbox.Drops() }

// Run writes reports until ctx ends.
func (p *Publisher) Run(ctx context.Context) {
	defer p.inbox.Close()

	for {
		r, err := p.inbox.Take(ctx)
		if err != nil {
			return
		}
		p.publish(r)
	}
}

func (p *Publisher) publish(r telemetry.Report) {
	switch {
	case r.PeerOnline:
		p.offline = 0
	case r.PeerSeen:
		p.offline += r.Elapsed
	}

	snap := status.FromReport(r, uint32(p.offline/time.Second))

	if err := p.w.WriteStatus(snap); err != nil {
		if !p.failing {
			p.logger.Warn("status export failed", "error", err)
		}
		p.failing = true
		return
	}
	if p.failing {
		p.logger.Info("status export recovered")
	}
	p.failing = false
}
