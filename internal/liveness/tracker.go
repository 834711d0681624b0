// internal/liveness/tracker.go
package liveness

import (
	"net/netip"
	"sync/atomic"
	"time"
)

// DefaultTimeout is how long a heartbeat keeps the peer ONLINE.
const DefaultTimeout = 5 * time.Second

// Reader is the read-only view handed to the relay and the reporter.
type Reader interface {
	Online() bool
	Snapshot() State
}

// State is a point-in-time view of the peer.
type State struct {
	Online   bool
	Seen     bool // at least one matching heartbeat since start
	LastSeen time.Time
}

// IsOnline is the lazy timeout rule: online iff lastSeen <= now < lastSeen+timeout.
// When both times carry a monotonic reading the difference ignores wall
// clock steps.
func IsOnline(now, lastSeen time.Time, timeout time.Duration) bool {
	d := now.Sub(lastSeen)
	return d >= 0 && d < timeout
}

// Tracker holds OFFLINE/ONLINE state for one peer address.
// Observe is the only write path. There is no expiry timer:
// the timeout is evaluated on every read.
type Tracker struct {
	peer    netip.Addr
	timeout time.Duration
	now     func() time.Time

	// last matching heartbeat as returned by now (monotonic reading kept); nil = never
	lastSeen atomic.Pointer[time.Time]
}

// NewTracker builds a tracker in the OFFLINE state.
func NewTracker(peer netip.Addr, timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Tracker{
		peer:    peer.Unmap(),
		timeout: timeout,
		now:     time.Now,
	}
}

// Peer returns the configured heartbeat source.
func (t *Tracker) Peer() netip.Addr { return t.peer }

// Timeout returns the configured window.
func (t *Tracker) Timeout() time.Duration { return t.timeout }

// Observe records a heartbeat from src.
// Returns false (and changes nothing) when src is not the configured peer.
func (t *Tracker) Observe(src netip.Addr) bool {
	if src.Unmap() != t.peer {
		return false
	}
	now := t.now()
	t.lastSeen.Store(&now)
	return true
}

// Online evaluates the timeout against the current time.
func (t *Tracker) Online() bool {
	return t.Snapshot().Online
}

// Snapshot evaluates the timeout and returns the full state.
func (t *Tracker) Snapshot() State {
	last := t.lastSeen.Load()
	if last == nil {
		return State{}
	}

	return State{
		Online:   IsOnline(t.now(), *last, t.timeout),
		Seen:     true,
		LastSeen: *last,
	}
}
