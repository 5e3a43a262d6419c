package config

// Storage selects the keyed store backing the ledger.
type Storage struct {
	Backend string `toml:"Backend" yaml:"backend"`
	// Path is the LevelDB directory or the bolt file. Unused in memory.
	Path string `toml:"Path" yaml:"path"`
}

// Storage backends.
const (
	StorageMemory  = "memory"
	StorageLevelDB = "leveldb"
	StorageBolt    = "bolt"
)

// Logging controls the structured logger.
type Logging struct {
	Level      string `toml:"Level" yaml:"level"`
	File       string `toml:"File" yaml:"file"`
	MaxSizeMB  int    `toml:"MaxSizeMB" yaml:"maxSizeMB"`
	MaxBackups int    `toml:"MaxBackups" yaml:"maxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays" yaml:"maxAgeDays"`
}

// Metrics toggles the prometheus collectors.
type Metrics struct {
	Enabled bool `toml:"Enabled" yaml:"enabled"`
}

// Audit configures the off-ledger event indexer.
type Audit struct {
	Enabled bool   `toml:"Enabled" yaml:"enabled"`
	Driver  string `toml:"Driver" yaml:"driver"`
	DSN     string `toml:"DSN" yaml:"dsn"`
}

// Telemetry configures the OpenTelemetry exporters.
type Telemetry struct {
	Endpoint    string  `toml:"Endpoint" yaml:"endpoint"`
	Insecure    bool    `toml:"Insecure" yaml:"insecure"`
	Headers     string  `toml:"Headers" yaml:"headers"`
	Traces      bool    `toml:"Traces" yaml:"traces"`
	Metrics     bool    `toml:"Metrics" yaml:"metrics"`
	SampleRatio float64 `toml:"SampleRatio" yaml:"sampleRatio"`
}

// Audit drivers understood by the indexer.
const (
	AuditDriverSQLite   = "sqlite"
	AuditDriverPostgres = "postgres"
)
