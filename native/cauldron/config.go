package cauldron

// DefaultMaxBuildAttempts bounds the vault id collision probe.
const DefaultMaxBuildAttempts = 16

// Config captures the runtime configuration for the cauldron module.
type Config struct {
	MaxBuildAttempts uint32 `toml:"MaxBuildAttempts" yaml:"maxBuildAttempts"`
	Paused           bool   `toml:"Paused" yaml:"paused"`
}

// EnsureDefaults fills zero values with the module defaults.
func (c *Config) EnsureDefaults() {
	if c.MaxBuildAttempts == 0 {
		c.MaxBuildAttempts = DefaultMaxBuildAttempts
	}
}
