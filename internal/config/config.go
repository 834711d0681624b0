// internal/config/config.go
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/tamzrod/sim-bridge/internal/frame"
)

type Config struct {
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Viewers   ViewersConfig   `yaml:"viewers"`
	Protocol  ProtocolConfig  `yaml:"protocol"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`

	// Status export (optional, opt-in)
	StatusExport *StatusExportConfig `yaml:"status_export"`

	// Layout is resolved from Protocol by Normalize.
	Layout frame.Layout `yaml:"-"`
}

// ---- UPSTREAM ----

type UpstreamConfig struct {
	Endpoint       string `yaml:"endpoint"`
	DialRetryMs    int    `yaml:"dial_retry_ms"`
	DialMaxRetries int    `yaml:"dial_max_retries"`
	ReconnectMinMs int    `yaml:"reconnect_min_ms"`
	ReconnectMaxMs int    `yaml:"reconnect_max_ms"`
	PollIntervalMs int    `yaml:"poll_interval_ms"`
}

// ---- HEARTBEAT ----

type HeartbeatConfig struct {
	Listen    string `yaml:"listen"`
	Peer      string `yaml:"peer"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- VIEWERS ----

type ViewersConfig struct {
	Listen         string `yaml:"listen"`
	Path           string `yaml:"path"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms"`
	PingIntervalMs int    `yaml:"ping_interval_ms"`
}

// ---- PROTOCOL ----

type ProtocolConfig struct {
	Version     string `yaml:"version"` // v1 | v2
	ResolutionW int    `yaml:"resolution_w"`
	ResolutionH int    `yaml:"resolution_h"`
	AgentCount  int    `yaml:"agent_count"`

	// Overrides; zero keeps the preset value.
	HeaderSize int    `yaml:"header_size"`
	Magic      uint32 `yaml:"magic"`
}

// ---- TELEMETRY ----

type TelemetryConfig struct {
	IntervalMs int  `yaml:"interval_ms"`
	Metrics    bool `yaml:"metrics"` // mount /metrics on the viewer server
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"`
}

// ---- STATUS EXPORT ----

type StatusExportConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint16 `yaml:"unit_id"`
	BaseSlot   uint16 `yaml:"base_slot"`
	DeviceName string `yaml:"device_name"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			Endpoint:       "tcp://127.0.0.1:5555",
			DialRetryMs:    1000,
			DialMaxRetries: 10,
			ReconnectMinMs: 100,
			ReconnectMaxMs: 30000,
			PollIntervalMs: 1,
		},
		Heartbeat: HeartbeatConfig{
			Listen:    ":5556",
			Peer:      "127.0.0.1",
			TimeoutMs: 5000,
		},
		Viewers: ViewersConfig{
			Listen:         ":8080",
			Path:           "/ws",
			WriteTimeoutMs: 2000,
			PingIntervalMs: 25000,
		},
		Protocol: ProtocolConfig{
			Version:     "v2",
			ResolutionW: 128,
			ResolutionH: 128,
		},
		Telemetry: TelemetryConfig{
			IntervalMs: 1000,
			Metrics:    true,
		},
		Log: LogConfig{Level: "info"},
	}
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (u UpstreamConfig) DialRetry() time.Duration    { return ms(u.DialRetryMs) }
func (u UpstreamConfig) ReconnectMin() time.Duration { return ms(u.ReconnectMinMs) }
func (u UpstreamConfig) ReconnectMax() time.Duration { return ms(u.ReconnectMaxMs) }
func (u UpstreamConfig) PollInterval() time.Duration { return ms(u.PollIntervalMs) }

func (h HeartbeatConfig) Timeout() time.Duration { return ms(h.TimeoutMs) }

func (v ViewersConfig) WriteTimeout() time.Duration { return ms(v.WriteTimeoutMs) }
func (v ViewersConfig) PingInterval() time.Duration { return ms(v.PingIntervalMs) }

func (t TelemetryConfig) Interval() time.Duration { return ms(t.IntervalMs) }

func (s StatusExportConfig) Timeout() time.Duration { return ms(s.TimeoutMs) }

// SlogLevel maps the configured level name; unknown names read as info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
