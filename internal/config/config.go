// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Davy-hou/dify-relay/internal/dify"
)

// Config holds all application configuration.
type Config struct {
	Port         string
	FrontendURL  string
	DataDir      string
	AppsFile     string
	SettingsFile string
	DifyHost     string
	DifyAPIKey   string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		FrontendURL:  getEnv("FRONTEND_URL", ""),
		DataDir:      dataDir,
		AppsFile:     getEnv("APPS_FILE", filepath.Join(dataDir, "apps.json")),
		SettingsFile: getEnv("SETTINGS_FILE", filepath.Join(dataDir, "settings.env")),
		DifyHost:     getEnv("DIFY_HOST", dify.DefaultHost),
		DifyAPIKey:   getEnv("DIFY_API_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.AppsFile == "" {
		return fmt.Errorf("APPS_FILE cannot be empty")
	}
	if c.SettingsFile == "" {
		return fmt.Errorf("SETTINGS_FILE cannot be empty")
	}
	if c.DifyHost == "" {
		return fmt.Errorf("DIFY_HOST cannot be empty")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
