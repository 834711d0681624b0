// internal/config/keys.go
package config

// Environment keys. A .env file may supply any of them.
const (
	KeyUpstream          = "BRIDGE_UPSTREAM"
	KeyHeartbeatListen   = "BRIDGE_HEARTBEAT_LISTEN"
	KeyHeartbeatPeer     = "BRIDGE_HEARTBEAT_PEER"
	KeyHeartbeatTimeout  = "BRIDGE_HEARTBEAT_TIMEOUT_MS"
	KeyViewersListen     = "BRIDGE_VIEWERS_LISTEN"
	KeyViewersPath       = "BRIDGE_VIEWERS_PATH"
	KeyProtocolVersion   = "BRIDGE_PROTOCOL_VERSION"
	KeyResolutionW       = "BRIDGE_RESOLUTION_W"
	KeyResolutionH       = "BRIDGE_RESOLUTION_H"
	KeyAgentCount        = "BRIDGE_AGENT_COUNT"
	KeyHeaderSize        = "BRIDGE_HEADER_SIZE"
	KeyTelemetryInterval = "BRIDGE_TELEMETRY_INTERVAL_MS"
	KeyLogLevel          = "BRIDGE_LOG_LEVEL"
	KeyStatusEndpoint    = "BRIDGE_STATUS_ENDPOINT"
)

// Flag names for the same settings, plus the file selectors.
const (
	FlagConfig            = "config"
	FlagEnvFile           = "env-file"
	FlagUpstream          = "upstream"
	FlagHeartbeatListen   = "heartbeat-listen"
	FlagHeartbeatPeer     = "heartbeat-peer"
	FlagHeartbeatTimeout  = "heartbeat-timeout-ms"
	FlagViewersListen     = "viewers-listen"
	FlagViewersPath       = "viewers-path"
	FlagProtocolVersion   = "protocol"
	FlagResolutionW       = "resolution-w"
	FlagResolutionH       = "resolution-h"
	FlagAgentCount        = "agent-count"
	FlagHeaderSize        = "header-size"
	FlagTelemetryInterval = "telemetry-interval-ms"
	FlagLogLevel          = "log-level"
	FlagStatusEndpoint    = "status-endpoint"
)

// DefaultEnvFile is read when present; a missing file is not an error.
const DefaultEnvFile = ".env"
