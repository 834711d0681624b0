// internal/relay/relay.go
package relay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tamzrod/sim-bridge/internal/frame"
	"github.com/tamzrod/sim-bridge/internal/liveness"
	"github.com/tamzrod/sim-bridge/internal/metrics"
	"github.com/tamzrod/sim-bridge/internal/registry"
	"github.com/tamzrod/sim-bridge/internal/telemetry"
)

// DefaultPollInterval is the retry delay when no frame is pending.
const DefaultPollInterval = time.Millisecond

// Source is the non-blocking upstream pull.
// ok=false means nothing is pending; it is not an error.
type Source interface {
	Poll() (buf []byte, ok bool)
}

// Broadcaster is the subset of the client registry the relay uses.
type Broadcaster interface {
	Len() int
	Broadcast(buf []byte) []registry.Outcome
}

// Outcome is the disposition of one upstream frame.
type Outcome int

const (
	OutcomeForwarded Outcome = iota
	OutcomeNoViewers
	OutcomeSizeMismatch
	OutcomeMagicMismatch
)

func (o Outcome) String() string {
	switch o {
	case OutcomeForwarded:
		return "forwarded"
	case OutcomeNoViewers:
		return "no_viewers"
	case OutcomeSizeMismatch:
		return "size_mismatch"
	case OutcomeMagicMismatch:
		return "magic_mismatch"
	default:
		return "unknown"
	}
}

// Config is the relay's immutable runtime config.
type Config struct {
	Layout       frame.Layout
	PollInterval time.Duration
}

// Relay pulls, validates, stamps liveness, and fans out.
type Relay struct {
	cfg      Config
	source   Source
	peer     liveness.Reader
	clients  Broadcaster
	counters *telemetry.Counters
	metrics  *metrics.Collector
	logger   *slog.Logger

	dropping bool // inside a run of malformed frames
}

// New validates the layout and builds a relay.
func New(cfg Config, source Source, peer liveness.Reader, clients Broadcaster, counters *telemetry.Counters, m *metrics.Collector, logger *slog.Logger) (*Relay, error) {
	if source == nil {
		return nil, errors.New("relay: source required")
	}
	if peer == nil {
		return nil, errors.New("relay: liveness reader required")
	}
	if clients == nil {
		return nil, errors.New("relay: broadcaster required")
	}
	if counters == nil {
		return nil, errors.New("relay: counters required")
	}
	if err := cfg.Layout.Validate(); err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if m == nil {
		m = metrics.New(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Relay{
		cfg:      cfg,
		source:   source,
		peer:     peer,
		clients:  clients,
		counters: counters,
		metrics:  m,
		logger:   logger,
	}, nil
}

// Run is the pull loop. It returns nil when ctx ends.
// Per-frame failures never leave this loop.
func (r *Relay) Run(ctx context.Context) error {
	timer := time.NewTimer(r.cfg.PollInterval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}

		buf, ok := r.source.Poll()
		if ok {
			r.Process(buf)
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(r.cfg.PollInterval)

		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}

// Process handles exactly one upstream frame.
// Not safe for concurrent use; Run is the only caller in production.
func (r *Relay) Process(buf []byte) Outcome {
	// counted before validation: rejected frames are still throughput
	r.counters.AddReceived(len(buf))
	r.metrics.FrameReceived(len(buf))

	if err := frame.Validate(buf, r.cfg.Layout); err != nil {
		r.counters.AddDropped()

		out := OutcomeSizeMismatch
		reason := metrics.ReasonSizeMismatch
		if errors.Is(err, frame.ErrMagicMismatch) {
			out = OutcomeMagicMismatch
			reason = metrics.ReasonMagicMismatch
		}
		r.metrics.FrameDropped(reason)
		if r.dropping {
			r.logger.Debug("dropping malformed frame", "reason", out.String(), "bytes", len(buf), "error", err)
		} else {
			r.logger.Warn("dropping malformed frames", "reason", out.String(), "bytes", len(buf), "error", err)
			r.dropping = true
		}
		return out
	}

	if r.dropping {
		r.logger.Info("upstream frames valid again")
		r.dropping = false
	}

	if r.clients.Len() == 0 {
		r.metrics.FrameDropped(metrics.ReasonNoViewers)
		return OutcomeNoViewers
	}

	stamped := frame.InjectLiveness(buf, r.cfg.Layout, r.peer.Online())
	outcomes := r.clients.Broadcast(stamped)
	if len(outcomes) == 0 {
		// last viewer left between Len and the snapshot
		r.metrics.FrameDropped(metrics.ReasonNoViewers)
		return OutcomeNoViewers
	}
	if failed := registry.Failed(outcomes); failed > 0 {
		r.metrics.SendFailures(failed)
		for _, o := range outcomes {
			if o.Err != nil {
				r.logger.Debug("viewer send failed", "session", o.SessionID, "error", o.Err)
			}
		}
	}

	r.counters.AddForwarded()
	r.metrics.FrameForwarded()
	return OutcomeForwarded
}
