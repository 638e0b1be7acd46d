// Package config loads coordkit settings from a YAML file with
// environment overrides.
//
// It uses Viper to read the config file and binds COORDKIT_-prefixed
// environment variables over it (e.g. COORDKIT_LOGGING_LEVEL overrides
// logging.level). A .env file, when present, is loaded first via
// godotenv.
//
//	settings, err := config.Load(config.WithConfigFile("config.yml"))
package config
