package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]struct{}{
	"":        {},
	"debug":   {},
	"info":    {},
	"warn":    {},
	"warning": {},
	"error":   {},
}

// Validate rejects configurations the node cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Service) == "" {
		return fmt.Errorf("service: name must be set")
	}
	if _, ok := validLogLevels[strings.ToLower(strings.TrimSpace(c.Logging.Level))]; !ok {
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return fmt.Errorf("logging: rotation limits must not be negative")
	}
	switch c.Storage.Backend {
	case StorageMemory:
	case StorageLevelDB, StorageBolt:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("storage: path required for %s", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("storage: unknown backend %q", c.Storage.Backend)
	}
	if c.Audit.Enabled {
		switch c.Audit.Driver {
		case AuditDriverSQLite, AuditDriverPostgres:
		default:
			return fmt.Errorf("audit: unknown driver %q", c.Audit.Driver)
		}
		if strings.TrimSpace(c.Audit.DSN) == "" {
			return fmt.Errorf("audit: dsn required when enabled")
		}
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: sample_ratio must be within [0,1]")
	}
	return nil
}
