// internal/frame/codec.go
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSizeMismatch means the buffer length differs from Layout.ExpectedSize.
	ErrSizeMismatch = errors.New("frame: size mismatch")

	// ErrMagicMismatch means the first four bytes are not the layout magic.
	ErrMagicMismatch = errors.New("frame: magic mismatch")

	// ErrInvalidFrame means the buffer is too short to hold a header.
	ErrInvalidFrame = errors.New("frame: invalid frame")
)

// Header is the decoded descriptive metadata of a frame.
// The relay never interprets it; it exists for diagnostics and tests.
type Header struct {
	Magic       uint32
	Liveness    uint8
	Tick        uint64
	TimestampUS uint64
	ComputeMS   float32
	TPS         float32
	ResolutionW uint16
	ResolutionH uint16
	AgentCount  uint16
}

// Validate checks buf against the layout.
// Size is checked first; the header is not read on a size mismatch.
// No IO. No panics.
func Validate(buf []byte, l Layout) error {
	want := l.ExpectedSize()
	if len(buf) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(buf), want)
	}

	magic := binary.LittleEndian.Uint32(buf[OffsetMagic:])
	if magic != l.Magic {
		return fmt.Errorf("%w: got 0x%08X, want 0x%08X", ErrMagicMismatch, magic, l.Magic)
	}

	return nil
}

// DecodeHeader reads the fixed header fields (little-endian).
// It does not check size or magic; use Validate for that.
func DecodeHeader(buf []byte, l Layout) (Header, error) {
	if len(buf) < l.HeaderSize || len(buf) < minHeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes, header needs %d", ErrInvalidFrame, len(buf), l.HeaderSize)
	}

	le := binary.LittleEndian
	h := Header{
		Magic:       le.Uint32(buf[OffsetMagic:]),
		Liveness:    buf[l.LivenessOffset],
		Tick:        le.Uint64(buf[OffsetTick:]),
		TimestampUS: le.Uint64(buf[OffsetTimestampUS:]),
		ComputeMS:   math.Float32frombits(le.Uint32(buf[OffsetComputeMS:])),
		TPS:         math.Float32frombits(le.Uint32(buf[OffsetTPS:])),
		ResolutionW: le.Uint16(buf[OffsetResolutionW:]),
		ResolutionH: le.Uint16(buf[OffsetResolutionH:]),
	}
	if l.HasAgentCountField {
		h.AgentCount = le.Uint16(buf[OffsetAgentCount:])
	}

	return h, nil
}

// InjectLiveness returns a copy of buf with the liveness byte set to
// 1 (online) or 0 (offline). Every other byte is preserved.
// Callers must have passed buf through Validate first.
func InjectLiveness(buf []byte, l Layout, online bool) []byte {
	out := make([]byte, len(buf))
	copy(out, buf)

	var v byte
	if online {
		v = 1
	}
	out[l.LivenessOffset] = v

	return out
}

// EncodeHeader writes h into the first HeaderSize bytes of dst.
// Padding bytes are left untouched. Used by tests and tooling that
// need to produce conforming frames.
func EncodeHeader(dst []byte, l Layout, h Header) error {
	if len(dst) < l.HeaderSize {
		return fmt.Errorf("%w: %d bytes, header needs %d", ErrInvalidFrame, len(dst), l.HeaderSize)
	}

	le := binary.LittleEndian
	le.PutUint32(dst[OffsetMagic:], h.Magic)
	dst[l.LivenessOffset] = h.Liveness
	le.PutUint64(dst[OffsetTick:], h.Tick)
	le.PutUint64(dst[OffsetTimestampUS:], h.TimestampUS)
	le.PutUint32(dst[OffsetComputeMS:], math.Float32bits(h.ComputeMS))
	le.PutUint32(dst[OffsetTPS:], math.Float32bits(h.TPS))
	le.PutUint16(dst[OffsetResolutionW:], h.ResolutionW)
	le.PutUint16(dst[OffsetResolutionH:], h.ResolutionH)
	if l.HasAgentCountField {
		le.PutUint16(dst[OffsetAgentCount:], h.AgentCount)
	}

	return nil
}

// New allocates a conforming frame for l with the given header.
// Payload bytes are zero.
func New(l Layout, h Header) []byte {
	buf := make([]byte, l.ExpectedSize())
	_ = EncodeHeader(buf, l, h)
	return buf
}
