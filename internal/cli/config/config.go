package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/cascade-orm/cascade/sqlstore"
)

// Config represents the Cascade configuration
type Config struct {
	Manifest string         `mapstructure:"manifest"`
	Database DatabaseConfig `mapstructure:"database"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
}

// Load loads the configuration from cascade.yml or cascade.yaml
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("manifest", "entities.yml")
	v.SetDefault("database.driver", "pgx")

	// Set config name and paths
	v.SetConfigName("cascade")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Enable environment variable support (CASCADE_MANIFEST,
	// CASCADE_DATABASE_DRIVER, ...)
	v.SetEnvPrefix("cascade")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	// First check environment variable
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	// Then check config file
	cfg, err := Load()
	if err != nil {
		return ""
	}

	return cfg.Database.URL
}

// FindManifest resolves the configured manifest path. Relative paths are
// tried against the working directory first and then against each parent,
// so commands work from anywhere inside a project.
func FindManifest(cfg *Config) (string, error) {
	path := cfg.Manifest
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("manifest %s not found", path)
		}
		return path, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return "", fmt.Errorf("no %s found in this directory or any parent", path)
		}
		dir = parent
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Manifest == "" {
		return fmt.Errorf("manifest path must not be empty")
	}
	if _, err := sqlstore.DialectFor(cfg.Database.Driver); err != nil {
		return fmt.Errorf("database.driver: %w", err)
	}
	return nil
}
