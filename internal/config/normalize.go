// internal/config/normalize.go
package config

import "github.com/tamzrod/sim-bridge/internal/status"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ------------------------------------------------------------
	// FRAME LAYOUT
	// ------------------------------------------------------------

	// already validated; an error here cannot happen
	if l, err := resolveLayout(cfg.Protocol); err == nil {
		cfg.Layout = l
	}

	// ------------------------------------------------------------
	// STATUS EXPORT (OPT-IN)
	// ------------------------------------------------------------

	if cfg.StatusExport == nil {
		return
	}

	// device_name: ASCII already validated, truncate to 16 characters
	if len(cfg.StatusExport.DeviceName) > status.DeviceNameMaxChars {
		cfg.StatusExport.DeviceName = cfg.StatusExport.DeviceName[:status.DeviceNameMaxChars]
	}
}
