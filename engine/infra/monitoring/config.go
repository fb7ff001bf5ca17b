package monitoring

import appconfig "github.com/compozy/contentkit/pkg/config"

// Config holds configuration for the monitoring service
type Config struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// DefaultConfig returns default monitoring configuration
func DefaultConfig() *Config {
	return &Config{Enabled: false}
}

// FromAppConfig maps the application monitoring section onto a Config.
func FromAppConfig(cfg *appconfig.Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return &Config{Enabled: cfg.Monitoring.Enabled}
}
