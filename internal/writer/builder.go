// internal/writer/builder.go
package writer

import (
	"errors"
	"log/slog"

	"github.com/tamzrod/sim-bridge/internal/config"
	wmodbus "github.com/tamzrod/sim-bridge/internal/writer/modbus"
)

// BuildStatusPlan converts the status export config into a plan.
// A nil section means export is disabled (nil, nil).
// Assumes config has already passed validation.
func BuildStatusPlan(c *config.StatusExportConfig) (*StatusPlan, error) {
	if c == nil {
		return nil, nil
	}
	if c.Endpoint == "" {
		return nil, errors.New("writer: status_export.endpoint required")
	}

	return &StatusPlan{
		Endpoint:   c.Endpoint,
		UnitID:     c.UnitID,
		BaseSlot:   c.BaseSlot,
		DeviceName: c.DeviceName,
		Timeout:    c.Timeout(),
	}, nil
}

// BuildPublisher connects to the plan's endpoint and wires writer and
// publisher together. The returned closer releases the connection.
func BuildPublisher(plan *StatusPlan, logger *slog.Logger) (*Publisher, func() error, error) {
	cli, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: plan.Endpoint,
		Timeout:  plan.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}

	sw, err := NewStatusWriter(plan, cli)
	if err != nil {
		_ = cli.Close()
		return nil, nil, err
	}

	return NewPublisher(sw, logger), cli.Close, nil
}
