// internal/config/load_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func envOf(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Sources{Env: envOf(nil)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Upstream.Endpoint != "tcp://127.0.0.1:5555" {
		t.Fatalf("upstream=%q", cfg.Upstream.Endpoint)
	}
	if cfg.Heartbeat.Timeout() != 5*time.Second {
		t.Fatalf("heartbeat timeout=%v", cfg.Heartbeat.Timeout())
	}
	if cfg.Telemetry.Interval() != time.Second {
		t.Fatalf("telemetry interval=%v", cfg.Telemetry.Interval())
	}
	if cfg.Upstream.PollInterval() != time.Millisecond {
		t.Fatalf("poll interval=%v", cfg.Upstream.PollInterval())
	}
	if cfg.StatusExport != nil {
		t.Fatalf("status export enabled by default")
	}
}

func TestLoad_Precedence(t *testing.T) {
	file := writeFile(t, "bridge.yaml", `
upstream:
  endpoint: tcp://10.0.0.1:5555
heartbeat:
  peer: 10.0.0.2
  timeout_ms: 3000
protocol:
  version: v1
`)
	dotenv := writeFile(t, ".env", "BRIDGE_HEARTBEAT_PEER=10.0.0.3\nBRIDGE_LOG_LEVEL=debug\n")

	flags := NewFlagSet("bridge")
	if err := flags.Parse([]string{"--config", file, "--env-file", dotenv, "--heartbeat-timeout-ms", "7000"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	src := SourcesFromFlags(flags)
	src.Env = envOf(map[string]string{
		KeyHeartbeatTimeout: "4000",
		KeyLogLevel:         "warn",
	})

	cfg, err := Load(src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// file over defaults
	if cfg.Upstream.Endpoint != "tcp://10.0.0.1:5555" || cfg.Protocol.Version != "v1" {
		t.Fatalf("file not applied: %+v", cfg.Upstream)
	}
	// .env over file
	if cfg.Heartbeat.Peer != "10.0.0.3" {
		t.Fatalf("peer=%q want .env value", cfg.Heartbeat.Peer)
	}
	// process env over .env
	if cfg.Log.Level != "warn" {
		t.Fatalf("log level=%q want env value", cfg.Log.Level)
	}
	// flags over env
	if cfg.Heartbeat.TimeoutMs != 7000 {
		t.Fatalf("timeout=%d want flag value", cfg.Heartbeat.TimeoutMs)
	}
	// untouched defaults survive
	if cfg.Viewers.Listen != ":8080" {
		t.Fatalf("viewers.listen=%q", cfg.Viewers.Listen)
	}
}

func TestLoad_StatusEndpointEnablesExport(t *testing.T) {
	cfg, err := Load(Sources{Env: envOf(map[string]string{KeyStatusEndpoint: "127.0.0.1:502"})})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StatusExport == nil || cfg.StatusExport.Endpoint != "127.0.0.1:502" {
		t.Fatalf("status export=%+v", cfg.StatusExport)
	}
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	src := Sources{EnvFile: filepath.Join(t.TempDir(), "absent.env"), Env: envOf(nil)}
	if _, err := Load(src); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(Sources{File: filepath.Join(t.TempDir(), "missing.yaml"), Env: envOf(nil)}); err == nil {
		t.Fatalf("missing config file accepted")
	}

	bad := writeFile(t, "bad.yaml", "upstream:\n  endpont: tcp://x:1\n")
	if _, err := Load(Sources{File: bad, Env: envOf(nil)}); err == nil {
		t.Fatalf("unknown yaml field accepted")
	}

	if _, err := Load(Sources{Env: envOf(map[string]string{KeyResolutionW: "wide"})}); err == nil {
		t.Fatalf("non-numeric env accepted")
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	empty := writeFile(t, "empty.yaml", "")
	cfg, err := Load(Sources{File: empty, Env: envOf(nil)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Viewers.Path != "/ws" {
		t.Fatalf("defaults lost: path=%q", cfg.Viewers.Path)
	}
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO"} {
		if got := (LogConfig{Level: in}).SlogLevel().String(); got != want {
			t.Fatalf("%q -> %s want %s", in, got, want)
		}
	}
}
