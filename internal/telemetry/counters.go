// internal/telemetry/counters.go
package telemetry

import "sync/atomic"

// Counters are the relay -> reporter accumulators.
// The relay only adds; draining the per-interval byte counter is
// reserved to the Reporter (unexported).
type Counters struct {
	received atomic.Uint64 // bytes this interval

	forwarded atomic.Uint64 // frames, lifetime
	dropped   atomic.Uint64 // frames, lifetime
}

// AddReceived accounts raw upstream bytes, valid or not.
func (c *Counters) AddReceived(n int) {
	if n > 0 {
		c.received.Add(uint64(n))
	}
}

// AddForwarded counts one frame handed to the registry.
func (c *Counters) AddForwarded() { c.forwarded.Add(1) }

// AddDropped counts one rejected frame.
func (c *Counters) AddDropped() { c.dropped.Add(1) }

// Pending is the byte count since the last drain.
func (c *Counters) Pending() uint64 { return c.received.Load() }

// Forwarded is the lifetime forwarded-frame count.
func (c *Counters) Forwarded() uint64 { return c.forwarded.Load() }

// Dropped is the lifetime dropped-frame count.
func (c *Counters) Dropped() uint64 { return c.dropped.Load() }

func (c *Counters) drainReceived() uint64 { return c.received.Swap(0) }
