// internal/config/validate.go
package config

import (
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/tamzrod/sim-bridge/internal/frame"
	"github.com/tamzrod/sim-bridge/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ------------------------------------------------------------
	// UPSTREAM
	// ------------------------------------------------------------

	u := cfg.Upstream
	if u.Endpoint == "" {
		return fmt.Errorf("upstream.endpoint is required")
	}
	if !strings.Contains(u.Endpoint, "://") {
		return fmt.Errorf("upstream.endpoint %q: missing transport scheme (e.g. tcp://)", u.Endpoint)
	}
	if u.DialRetryMs < 0 || u.ReconnectMinMs < 0 || u.ReconnectMaxMs < 0 {
		return fmt.Errorf("upstream: retry and reconnect durations must not be negative")
	}
	if u.ReconnectMaxMs > 0 && u.ReconnectMaxMs < u.ReconnectMinMs {
		return fmt.Errorf("upstream: reconnect_max_ms (%d) < reconnect_min_ms (%d)", u.ReconnectMaxMs, u.ReconnectMinMs)
	}
	if u.PollIntervalMs <= 0 {
		return fmt.Errorf("upstream.poll_interval_ms must be > 0")
	}

	// ------------------------------------------------------------
	// HEARTBEAT
	// ------------------------------------------------------------

	h := cfg.Heartbeat
	if err := checkListen("heartbeat.listen", h.Listen); err != nil {
		return err
	}
	if _, err := netip.ParseAddr(h.Peer); err != nil {
		return fmt.Errorf("heartbeat.peer %q: not an IP address", h.Peer)
	}
	if h.TimeoutMs <= 0 {
		return fmt.Errorf("heartbeat.timeout_ms must be > 0")
	}

	// ------------------------------------------------------------
	// VIEWERS
	// ------------------------------------------------------------

	v := cfg.Viewers
	if err := checkListen("viewers.listen", v.Listen); err != nil {
		return err
	}
	if !strings.HasPrefix(v.Path, "/") {
		return fmt.Errorf("viewers.path %q must start with /", v.Path)
	}
	if cfg.Telemetry.Metrics && (v.Path == "/metrics" || v.Path == "/healthz") {
		return fmt.Errorf("viewers.path %q collides with a built-in endpoint", v.Path)
	}
	if v.WriteTimeoutMs <= 0 || v.PingIntervalMs <= 0 {
		return fmt.Errorf("viewers: write_timeout_ms and ping_interval_ms must be > 0")
	}

	// ------------------------------------------------------------
	// PROTOCOL
	// ------------------------------------------------------------

	if _, err := resolveLayout(cfg.Protocol); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// TELEMETRY / LOG
	// ------------------------------------------------------------

	if cfg.Telemetry.IntervalMs <= 0 {
		return fmt.Errorf("telemetry.interval_ms must be > 0")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q: unknown level", cfg.Log.Level)
	}

	// ------------------------------------------------------------
	// STATUS EXPORT (OPT-IN)
	// ------------------------------------------------------------

	if se := cfg.StatusExport; se != nil {
		if se.Endpoint == "" {
			return fmt.Errorf("status_export.endpoint is required")
		}
		if _, _, err := net.SplitHostPort(se.Endpoint); err != nil {
			return fmt.Errorf("status_export.endpoint %q: %v", se.Endpoint, err)
		}
		if se.UnitID > 255 {
			return fmt.Errorf("status_export.unit_id %d out of range (0-255)", se.UnitID)
		}
		if (int(se.BaseSlot)+1)*status.SlotsPerBlock > 65536 {
			return fmt.Errorf("status_export.base_slot %d exceeds register space", se.BaseSlot)
		}
		if se.TimeoutMs < 0 {
			return fmt.Errorf("status_export.timeout_ms must not be negative")
		}

		// device_name sanity (ASCII only)
		for i := 0; i < len(se.DeviceName); i++ {
			if se.DeviceName[i] > 0x7F {
				return fmt.Errorf("status_export.device_name must contain ASCII characters only")
			}
		}
	}

	return nil
}

func checkListen(field, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s %q: %v", field, addr, err)
	}
	return nil
}

// resolveLayout applies the protocol section to its preset.
// Pure; shared by Validate and Normalize.
func resolveLayout(p ProtocolConfig) (frame.Layout, error) {
	l, err := frame.Preset(p.Version)
	if err != nil {
		return frame.Layout{}, fmt.Errorf("protocol.version: %w", err)
	}

	if p.AgentCount < 0 {
		return frame.Layout{}, fmt.Errorf("protocol.agent_count must not be negative")
	}
	if p.AgentCount > 0 && !l.HasAgentCountField {
		return frame.Layout{}, fmt.Errorf("protocol.agent_count: %s frames carry no agent payload", l.Name)
	}

	l.Width = p.ResolutionW
	l.Height = p.ResolutionH
	l.AgentCount = p.AgentCount
	if p.HeaderSize != 0 {
		l.HeaderSize = p.HeaderSize
	}
	if p.Magic != 0 {
		l.Magic = p.Magic
	}

	if err := l.Validate(); err != nil {
		return frame.Layout{}, fmt.Errorf("protocol: %w", err)
	}
	return l, nil
}
