// internal/writer/types.go
package writer

import (
	"time"

	"github.com/tamzrod/sim-bridge/internal/status"
)

// StatusPlan is the fully-built status export plan.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint16
	BaseSlot   uint16
	DeviceName string
	Timeout    time.Duration
}

// StatusWriter is the delivery-only contract for the bridge status block.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// endpointClient is the exact contract the status writer uses.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
