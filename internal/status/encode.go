// internal/status/encode.go
package status

import (
	"math"

	"github.com/tamzrod/sim-bridge/internal/telemetry"
)

// Encode converts a Snapshot into a full status block image.
// Reserved and name slots are left zero.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerBlock)
	copy(regs, s.Live())
	return regs
}

// FromReport folds one telemetry report into a Snapshot.
// secondsOffline is carried by the caller across reports.
func FromReport(r telemetry.Report, secondsOffline uint32) Snapshot {
	s := Snapshot{
		PeerState:           PeerUnknown,
		UpstreamState:       UpstreamStale,
		SecondsOffline:      saturate(uint64(secondsOffline)),
		ThroughputCentiMbps: centi(r.Mbps),
		Viewers:             saturate(uint64(max(r.Viewers, 0))),
		FramesDropped:       saturate(r.Dropped),
	}

	switch {
	case r.PeerOnline:
		s.PeerState = PeerOnline
	case r.PeerSeen:
		s.PeerState = PeerOffline
	}

	switch {
	case r.Elapsed <= 0:
		s.UpstreamState = UpstreamUnknown
	case r.Bytes > 0:
		s.UpstreamState = UpstreamFlowing
	}

	return s
}

func saturate(v uint64) uint16 {
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}

func centi(mbps float64) uint16 {
	if mbps <= 0 || math.IsNaN(mbps) {
		return 0
	}
	v := math.Round(mbps * 100)
	if v >= math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}
