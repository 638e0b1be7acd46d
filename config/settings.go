package config

import (
	"fmt"

	"github.com/kbukum/coordkit/configstore"
	"github.com/kbukum/coordkit/logger"
	"github.com/kbukum/coordkit/registry"
)

// Settings is the top-level configuration for a coordkit deployment.
// Projects embedding coordkit can extend it in their own structs.
type Settings struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging  logger.Config      `yaml:"logging" mapstructure:"logging"`
	Registry registry.Config    `yaml:"registry" mapstructure:"registry"`
	Store    configstore.Config `yaml:"store" mapstructure:"store"`
}

// ApplyDefaults applies default values to all sections.
func (s *Settings) ApplyDefaults() {
	if s.Name == "" {
		s.Name = "coordkit"
	}
	if s.Environment == "" {
		s.Environment = "development"
	}
	if s.Environment == "development" {
		s.Debug = true
	}
	if s.Version == "" {
		s.Version = "1.0"
	}
	s.Logging.ApplyDefaults()
	s.Registry.ApplyDefaults()
	s.Store.ApplyDefaults()
}

// Validate validates all sections.
func (s *Settings) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if s.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", s.Environment)
	}
	if err := s.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := s.Registry.Validate(); err != nil {
		return fmt.Errorf("config.registry: %w", err)
	}
	if err := s.Store.Validate(); err != nil {
		return fmt.Errorf("config.store: %w", err)
	}
	return nil
}
