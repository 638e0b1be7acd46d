package registry

import (
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/coordkit/clock"
	"github.com/kbukum/coordkit/errors"
)

// DefaultHeartbeatTimeout is applied when Config.HeartbeatTimeout is unset.
const DefaultHeartbeatTimeout = 5 * time.Minute

// Config holds registry configuration.
type Config struct {
	// HeartbeatTimeout is how long after the last heartbeat a record
	// is still considered active. Zero means DefaultHeartbeatTimeout;
	// negative values are rejected.
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout" mapstructure:"heartbeat_timeout"`

	// Clock supplies the current instant. Defaults to the system clock.
	Clock clock.Clock `yaml:"-" mapstructure:"-"`

	// Meter optionally enables OpenTelemetry counters for registrations,
	// heartbeats and evictions.
	Meter metric.Meter `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.HeartbeatTimeout == 0 {
		c.HeartbeatTimeout = DefaultHeartbeatTimeout
	}
	if c.Clock == nil {
		c.Clock = clock.System{}
	}
}

// Validate validates registry configuration. A non-positive timeout would
// classify every record stale at the instant of registration.
func (c *Config) Validate() error {
	if c.HeartbeatTimeout <= 0 {
		return errors.InvalidInput("heartbeat_timeout", "must be positive")
	}
	return nil
}
