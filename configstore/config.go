package configstore

import (
	"strings"
	"time"

	"github.com/kbukum/coordkit/clock"
	"github.com/kbukum/coordkit/errors"
)

// Format identifies the on-disk encoding of a configuration document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat normalizes a user-supplied format string. The empty string
// is allowed and means "use the store default".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", errors.InvalidFormat("format", "json or yaml")
	}
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// Config holds configuration store settings.
type Config struct {
	// Dir is the directory holding configuration files.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// DefaultFormat is used when Save is called without a format.
	DefaultFormat string `yaml:"default_format" mapstructure:"default_format"`

	// CacheTTL bounds how long a loaded document is served from memory.
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`

	// CacheMaxEntries bounds the cache size; least recently used entries
	// are evicted beyond it.
	CacheMaxEntries int `yaml:"cache_max_entries" mapstructure:"cache_max_entries"`

	// DisableBackups turns off the timestamped backup copies written
	// before updates and deletes.
	DisableBackups bool `yaml:"disable_backups" mapstructure:"disable_backups"`

	// Clock supplies timestamps for metadata, backups and cache expiry.
	// Defaults to the system clock.
	Clock clock.Clock `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Dir == "" {
		c.Dir = "config"
	}
	if c.DefaultFormat == "" {
		c.DefaultFormat = string(FormatJSON)
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.CacheMaxEntries == 0 {
		c.CacheMaxEntries = 256
	}
	if c.Clock == nil {
		c.Clock = clock.System{}
	}
}

// Validate validates store configuration.
func (c *Config) Validate() error {
	if _, err := ParseFormat(c.DefaultFormat); err != nil {
		return err
	}
	if c.CacheTTL < 0 {
		return errors.InvalidInput("cache_ttl", "must not be negative")
	}
	if c.CacheMaxEntries < 0 {
		return errors.InvalidInput("cache_max_entries", "must not be negative")
	}
	return nil
}
