// Package config loads and validates the YAML configuration shared by the
// server binary and the admin CLI.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration.
type Config struct {
	HTTPPort     int      `yaml:"HTTP_PORT" validate:"required,min=1,max=65535"`
	DBPath       string   `yaml:"DB_PATH" validate:"required"`
	DataDir      string   `yaml:"DATA_DIR"`
	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC" validate:"required_with=KafkaBrokers"`
}

// DefaultPath is used when neither the flag nor REGISTRY_CONFIG is set.
const DefaultPath = "internal/registry/config/config.yaml"

// Load reads, parses and validates the configuration at path.
func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Path resolves the config file location: explicit argument, then the
// REGISTRY_CONFIG environment variable, then DefaultPath.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("REGISTRY_CONFIG"); env != "" {
		return env
	}
	return DefaultPath
}
