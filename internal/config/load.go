// internal/config/load.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Sources selects where Load reads from.
// Precedence: flags > environment > .env file > YAML file > defaults.
type Sources struct {
	File    string                          // YAML path; "" skips
	EnvFile string                          // .env path; missing file is not an error
	Env     func(key string) (string, bool) // nil means os.LookupEnv
	Flags   *pflag.FlagSet                  // parsed set from NewFlagSet; only changed flags apply
}

// ---- bindings ----

type kind int

const (
	kindString kind = iota
	kindInt
)

// binding ties one setting to its env key and flag.
type binding struct {
	key   string
	flag  string
	kind  kind
	usage string
	set   func(c *Config, v string) error
}

func str(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func num(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

var bindings = []binding{
	{KeyUpstream, FlagUpstream, kindString, "upstream publisher endpoint (tcp://host:port)",
		str(func(c *Config) *string { return &c.Upstream.Endpoint })},
	{KeyHeartbeatListen, FlagHeartbeatListen, kindString, "heartbeat UDP listen address",
		str(func(c *Config) *string { return &c.Heartbeat.Listen })},
	{KeyHeartbeatPeer, FlagHeartbeatPeer, kindString, "heartbeat peer IP address",
		str(func(c *Config) *string { return &c.Heartbeat.Peer })},
	{KeyHeartbeatTimeout, FlagHeartbeatTimeout, kindInt, "heartbeat timeout in milliseconds",
		num(func(c *Config) *int { return &c.Heartbeat.TimeoutMs })},
	{KeyViewersListen, FlagViewersListen, kindString, "viewer WebSocket listen address",
		str(func(c *Config) *string { return &c.Viewers.Listen })},
	{KeyViewersPath, FlagViewersPath, kindString, "viewer WebSocket path",
		str(func(c *Config) *string { return &c.Viewers.Path })},
	{KeyProtocolVersion, FlagProtocolVersion, kindString, "frame protocol version (v1|v2)",
		str(func(c *Config) *string { return &c.Protocol.Version })},
	{KeyResolutionW, FlagResolutionW, kindInt, "voxel grid width",
		num(func(c *Config) *int { return &c.Protocol.ResolutionW })},
	{KeyResolutionH, FlagResolutionH, kindInt, "voxel grid height",
		num(func(c *Config) *int { return &c.Protocol.ResolutionH })},
	{KeyAgentCount, FlagAgentCount, kindInt, "agent records per frame (v2)",
		num(func(c *Config) *int { return &c.Protocol.AgentCount })},
	{KeyHeaderSize, FlagHeaderSize, kindInt, "header size override in bytes (0 keeps preset)",
		num(func(c *Config) *int { return &c.Protocol.HeaderSize })},
	{KeyTelemetryInterval, FlagTelemetryInterval, kindInt, "status report interval in milliseconds",
		num(func(c *Config) *int { return &c.Telemetry.IntervalMs })},
	{KeyLogLevel, FlagLogLevel, kindString, "log level (debug|info|warn|error)",
		str(func(c *Config) *string { return &c.Log.Level })},
	{KeyStatusEndpoint, FlagStatusEndpoint, kindString, "Modbus TCP endpoint for status export (enables export)",
		func(c *Config, v string) error {
			if c.StatusExport == nil {
				c.StatusExport = &StatusExportConfig{}
			}
			c.StatusExport.Endpoint = v
			return nil
		}},
}

// NewFlagSet declares every bridge flag. Defaults are left empty so that
// only flags set on the command line override lower layers.
func NewFlagSet(name string) *pflag.FlagSet {
	set := pflag.NewFlagSet(name, pflag.ContinueOnError)
	set.String(FlagConfig, "", "YAML config file")
	set.String(FlagEnvFile, DefaultEnvFile, "dotenv file (ignored when missing)")

	for _, b := range bindings {
		switch b.kind {
		case kindInt:
			set.Int(b.flag, 0, b.usage)
		default:
			set.String(b.flag, "", b.usage)
		}
	}
	return set
}

// SourcesFromFlags reads the file selectors out of a parsed flag set.
func SourcesFromFlags(flags *pflag.FlagSet) Sources {
	src := Sources{Flags: flags}
	src.File, _ = flags.GetString(FlagConfig)
	src.EnvFile, _ = flags.GetString(FlagEnvFile)
	return src
}

// ---- load ----

// Load layers the sources over Default. It does not validate.
func Load(src Sources) (*Config, error) {
	cfg := Default()

	if src.File != "" {
		if err := loadFile(cfg, src.File); err != nil {
			return nil, err
		}
	}

	dotenv, err := readEnvFile(src.EnvFile)
	if err != nil {
		return nil, err
	}

	lookup := src.Env
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for _, b := range bindings {
		v, ok := lookup(b.key)
		if !ok {
			v, ok = dotenv[b.key]
		}
		if !ok || v == "" {
			continue
		}
		if err := b.set(cfg, v); err != nil {
			return nil, fmt.Errorf("config: env %s=%q: %w", b.key, v, err)
		}
	}

	if src.Flags != nil {
		for _, b := range bindings {
			f := src.Flags.Lookup(b.flag)
			if f == nil || !f.Changed {
				continue
			}
			if err := b.set(cfg, f.Value.String()); err != nil {
				return nil, fmt.Errorf("config: flag --%s: %w", b.flag, err)
			}
		}
	}

	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	m, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: env file %s: %w", path, err)
	}
	return m, nil
}
