// internal/frame/layout.go
package frame

import (
	"errors"
	"fmt"
)

// Sentinel is the magic number every structurally valid frame starts with.
const Sentinel uint32 = 0xDEADBEEF

// ---- FIXED HEADER OFFSETS ----
// These offsets are shared by every known protocol version.

const (
	OffsetMagic       = 0
	OffsetLiveness    = 4
	OffsetTick        = 8
	OffsetTimestampUS = 16
	OffsetComputeMS   = 24
	OffsetTPS         = 28
	OffsetResolutionW = 32
	OffsetResolutionH = 34
	OffsetAgentCount  = 36 // only when Layout.HasAgentCountField
)

// minHeaderSize covers every fixed field up to and including resolution_h.
const minHeaderSize = OffsetResolutionH + 2

// ---- PAYLOAD GEOMETRY ----

const (
	DefaultBytesPerVoxel   = 4
	DefaultAgentRecordSize = 64
)

// Layout describes one deployed protocol version.
// It is selected at startup and never negotiated.
type Layout struct {
	Name  string
	Magic uint32

	HeaderSize     int
	LivenessOffset int

	Width         int
	Height        int
	BytesPerVoxel int

	AgentCount         int
	AgentRecordSize    int
	HasAgentCountField bool
}

// LayoutV1 is the historical 40-byte header without agent payload.
var LayoutV1 = Layout{
	Name:            "v1",
	Magic:           Sentinel,
	HeaderSize:      40,
	LivenessOffset:  OffsetLiveness,
	Width:           128,
	Height:          128,
	BytesPerVoxel:   DefaultBytesPerVoxel,
	AgentRecordSize: DefaultAgentRecordSize,
}

// LayoutV2 is the canonical 48-byte header carrying agent_count.
var LayoutV2 = Layout{
	Name:               "v2",
	Magic:              Sentinel,
	HeaderSize:         48,
	LivenessOffset:     OffsetLiveness,
	Width:              128,
	Height:             128,
	BytesPerVoxel:      DefaultBytesPerVoxel,
	AgentRecordSize:    DefaultAgentRecordSize,
	HasAgentCountField: true,
}

// Preset returns a copy of the named layout.
func Preset(name string) (Layout, error) {
	switch name {
	case "v1":
		return LayoutV1, nil
	case "v2", "":
		return LayoutV2, nil
	default:
		return Layout{}, fmt.Errorf("frame: unknown protocol version %q", name)
	}
}

// VoxelPayloadSize is W*H*BytesPerVoxel.
func (l Layout) VoxelPayloadSize() int {
	return l.Width * l.Height * l.BytesPerVoxel
}

// AgentPayloadSize is AgentCount*AgentRecordSize.
func (l Layout) AgentPayloadSize() int {
	return l.AgentCount * l.AgentRecordSize
}

// ExpectedSize is the only length a frame of this layout may have.
func (l Layout) ExpectedSize() int {
	return l.HeaderSize + l.VoxelPayloadSize() + l.AgentPayloadSize()
}

// Validate checks the layout itself, not a frame.
func (l Layout) Validate() error {
	need := minHeaderSize
	if l.HasAgentCountField {
		need = OffsetAgentCount + 2
	}
	if l.HeaderSize < need {
		return fmt.Errorf("frame: header_size %d below minimum %d", l.HeaderSize, need)
	}
	if l.LivenessOffset < OffsetMagic+4 || l.LivenessOffset >= OffsetTick {
		return fmt.Errorf("frame: liveness_offset %d must lie in reserved bytes 4..7", l.LivenessOffset)
	}
	if l.Width <= 0 || l.Height <= 0 {
		return errors.New("frame: resolution must be > 0")
	}
	if l.Width > 0xFFFF || l.Height > 0xFFFF {
		return errors.New("frame: resolution must fit in u16")
	}
	if l.BytesPerVoxel <= 0 {
		return errors.New("frame: bytes_per_voxel must be > 0")
	}
	if l.AgentCount < 0 || l.AgentRecordSize < 0 {
		return errors.New("frame: agent geometry must be >= 0")
	}
	if l.AgentCount > 0xFFFF {
		return errors.New("frame: agent_count must fit in u16")
	}
	if l.AgentCount > 0 && !l.HasAgentCountField {
		return fmt.Errorf("frame: layout %q has no agent_count field but agent_count=%d", l.Name, l.AgentCount)
	}
	return nil
}
