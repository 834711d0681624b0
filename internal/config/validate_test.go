// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"

	"github.com/tamzrod/sim-bridge/internal/frame"
)

func TestValidate_DefaultsAreValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"empty upstream", func(c *Config) { c.Upstream.Endpoint = "" }, "upstream.endpoint"},
		{"upstream without scheme", func(c *Config) { c.Upstream.Endpoint = "127.0.0.1:5555" }, "scheme"},
		{"reconnect inverted", func(c *Config) { c.Upstream.ReconnectMinMs = 500; c.Upstream.ReconnectMaxMs = 100 }, "reconnect_max_ms"},
		{"zero poll", func(c *Config) { c.Upstream.PollIntervalMs = 0 }, "poll_interval_ms"},
		{"bad peer ip", func(c *Config) { c.Heartbeat.Peer = "node2.local" }, "heartbeat.peer"},
		{"heartbeat listen", func(c *Config) { c.Heartbeat.Listen = "5556" }, "heartbeat.listen"},
		{"zero timeout", func(c *Config) { c.Heartbeat.TimeoutMs = 0 }, "timeout_ms"},
		{"viewer path", func(c *Config) { c.Viewers.Path = "ws" }, "viewers.path"},
		{"viewer path collides", func(c *Config) { c.Viewers.Path = "/metrics" }, "collides"},
		{"unknown protocol", func(c *Config) { c.Protocol.Version = "v3" }, "protocol.version"},
		{"v1 with agents", func(c *Config) { c.Protocol.Version = "v1"; c.Protocol.AgentCount = 2 }, "agent payload"},
		{"agent_count beyond u16", func(c *Config) { c.Protocol.AgentCount = 70000 }, "u16"},
		{"zero resolution", func(c *Config) { c.Protocol.ResolutionW = 0 }, "resolution"},
		{"header too small", func(c *Config) { c.Protocol.HeaderSize = 20 }, "header_size"},
		{"zero telemetry", func(c *Config) { c.Telemetry.IntervalMs = 0 }, "telemetry.interval_ms"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"status no endpoint", func(c *Config) { c.StatusExport = &StatusExportConfig{} }, "status_export.endpoint"},
		{"status unit id", func(c *Config) {
			c.StatusExport = &StatusExportConfig{Endpoint: "127.0.0.1:502", UnitID: 300}
		}, "unit_id"},
		{"status base slot", func(c *Config) {
			c.StatusExport = &StatusExportConfig{Endpoint: "127.0.0.1:502", BaseSlot: 3300}
		}, "base_slot"},
		{"status device name", func(c *Config) {
			c.StatusExport = &StatusExportConfig{Endpoint: "127.0.0.1:502", DeviceName: "brücke"}
		}, "ASCII"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := Default()
	cfg.StatusExport = &StatusExportConfig{Endpoint: "127.0.0.1:502", DeviceName: "SIMULATION-BRIDGE-NODE"}

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.StatusExport.DeviceName != "SIMULATION-BRIDGE-NODE" {
		t.Fatalf("Validate mutated device_name")
	}
	if cfg.Layout != (frame.Layout{}) {
		t.Fatalf("Validate resolved the layout")
	}
}

func TestNormalize_ResolvesLayout(t *testing.T) {
	tests := []struct {
		name     string
		protocol ProtocolConfig
		size     int
	}{
		{"v1 128x128", ProtocolConfig{Version: "v1", ResolutionW: 128, ResolutionH: 128}, 65576},
		{"v2 no agents", ProtocolConfig{Version: "v2", ResolutionW: 128, ResolutionH: 128}, 65584},
		{"v2 three agents", ProtocolConfig{Version: "v2", ResolutionW: 128, ResolutionH: 128, AgentCount: 3}, 65584 + 3*64},
		{"v1 header override", ProtocolConfig{Version: "v1", ResolutionW: 64, ResolutionH: 32, HeaderSize: 44}, 44 + 64*32*4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Protocol = tc.protocol
			if err := Validate(cfg); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			Normalize(cfg)
			if got := cfg.Layout.ExpectedSize(); got != tc.size {
				t.Fatalf("expected size %d want %d", got, tc.size)
			}
		})
	}
}

func TestNormalize_MagicOverride(t *testing.T) {
	cfg := Default()
	cfg.Protocol.Magic = 0xCAFEBABE
	Normalize(cfg)
	if cfg.Layout.Magic != 0xCAFEBABE {
		t.Fatalf("magic=%#x", cfg.Layout.Magic)
	}
}

func TestNormalize_TruncatesDeviceName(t *testing.T) {
	cfg := Default()
	cfg.StatusExport = &StatusExportConfig{Endpoint: "127.0.0.1:502", DeviceName: "SIMULATION-BRIDGE-NODE"}

	Normalize(cfg)

	if cfg.StatusExport.DeviceName != "SIMULATION-BRIDG" {
		t.Fatalf("device_name=%q", cfg.StatusExport.DeviceName)
	}
}
