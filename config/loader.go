package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix marks environment variables that override file settings,
// e.g. COORDKIT_LOGGING_LEVEL overrides logging.level.
const EnvPrefix = "COORDKIT_"

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct .env file path (optional)
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load reads settings from a YAML config file and COORDKIT_-prefixed
// environment variables, applies defaults and validates the result.
// When no config file is found, defaults plus environment overrides
// are used.
func Load(opts ...LoaderOption) (*Settings, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}
	if lc.ConfigFile == "" {
		lc.ConfigFile = findConfigFile(lc.FileSystem)
	}
	if lc.EnvFile == "" && lc.FileSystem.Exists(".env") {
		lc.EnvFile = ".env"
	}

	v := viper.New()

	// 1. Load the YAML config file (base configuration).
	if lc.ConfigFile != "" && lc.FileSystem.Exists(lc.ConfigFile) {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", lc.ConfigFile, err)
		}
	}

	// 2. Load the .env file before binding overrides so its variables
	// are visible in the environment.
	if lc.EnvFile != "" && lc.FileSystem.Exists(lc.EnvFile) {
		if err := lc.FileSystem.LoadEnv(lc.EnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", lc.EnvFile, err)
		}
	}

	// 3. Bind COORDKIT_-prefixed environment variables over the file.
	bindEnvOverrides(v)

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	settings.ApplyDefaults()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// findConfigFile searches for config.yml in standard locations.
func findConfigFile(fs FileSystem) string {
	searchPaths := []string{
		"./config.yml",
		"./config.yaml",
		"./config/config.yml",
		"../config/config.yml",
	}
	for _, path := range searchPaths {
		if fs.Exists(path) {
			return path
		}
	}
	return ""
}

// bindEnvOverrides sets COORDKIT_-prefixed environment variables into
// Viper under every plausible nested key so sections with underscored
// field names still resolve (COORDKIT_STORE_CACHE_TTL binds both
// store.cache.ttl and store.cache_ttl).
func bindEnvOverrides(v *viper.Viper) {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], EnvPrefix) {
			continue
		}
		for _, variant := range envKeyVariants(strings.TrimPrefix(pair[0], EnvPrefix)) {
			v.Set(variant, pair[1])
		}
	}
}

// envKeyVariants creates key variants for an environment variable name.
// Example: REGISTRY_HEARTBEAT_TIMEOUT -> [registry_heartbeat_timeout,
// registry.heartbeat.timeout, registry.heartbeat_timeout, ...]
func envKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")
	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{
		lowerKey,
		strings.ReplaceAll(lowerKey, "_", "."),
	}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	return removeDuplicates(variants)
}

func removeDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
