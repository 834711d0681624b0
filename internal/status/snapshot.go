// internal/status/snapshot.go
package status

// Snapshot is exactly what the writer is allowed to deliver.
// It carries no logic and no memory beyond the current interval.
type Snapshot struct {
	PeerState           uint16
	UpstreamState       uint16
	SecondsOffline      uint16
	ThroughputCentiMbps uint16
	Viewers             uint16
	FramesDropped       uint16
}

// Live returns the snapshot's live slots (0..SlotFramesDropped) in slot order.
func (s Snapshot) Live() []uint16 {
	return []uint16{
		SlotPeerState:      s.PeerState,
		SlotUpstreamState:  s.UpstreamState,
		SlotSecondsOffline: s.SecondsOffline,
		SlotThroughput:     s.ThroughputCentiMbps,
		SlotViewers:        s.Viewers,
		SlotFramesDropped:  s.FramesDropped,
	}
}
