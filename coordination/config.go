package coordination

import (
	"github.com/kbukum/coordkit/clock"
	"github.com/kbukum/coordkit/errors"
)

// Config holds the identity the facade registers itself under.
type Config struct {
	// ServiceName is the registry name of the coordination service itself.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`

	// ServiceType tags the self-registration record.
	ServiceType string `yaml:"service_type" mapstructure:"service_type"`

	Host           string `yaml:"host" mapstructure:"host"`
	Port           int    `yaml:"port" mapstructure:"port"`
	Version        string `yaml:"version" mapstructure:"version"`
	HealthEndpoint string `yaml:"health_endpoint" mapstructure:"health_endpoint"`

	// Clock supplies uptime and snapshot timestamps. Defaults to the
	// system clock.
	Clock clock.Clock `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "config-coordination"
	}
	if c.ServiceType == "" {
		c.ServiceType = "config"
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.HealthEndpoint == "" {
		c.HealthEndpoint = "/health"
	}
	if c.Clock == nil {
		c.Clock = clock.System{}
	}
}

// Validate validates facade configuration.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.InvalidInput("port", "must be between 1 and 65535")
	}
	return nil
}
