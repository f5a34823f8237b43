// Package config loads the client configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all loglens settings.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Shipper ShipperConfig `yaml:"shipper"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig locates the remote log-assistant service.
type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// StorageConfig locates the durable local store.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// ShipperConfig configures the log file shipper.
type ShipperConfig struct {
	WatchDir    string   `yaml:"watch_dir"`
	ProjectName string   `yaml:"project_name"`
	Extensions  []string `yaml:"extensions"`
}

// LoggingConfig configures diagnostic output.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultPath returns the conventional config location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".loglens", "config.yaml")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Server:  ServerConfig{BaseURL: "http://localhost:8000", Timeout: "30s"},
		Storage: StorageConfig{Path: filepath.Join(home, ".loglens", "loglens.db")},
		Shipper: ShipperConfig{ProjectName: "default", Extensions: []string{".log"}},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the config at path, falling back to defaults when the file does
// not exist. Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// ServerTimeout parses the configured request timeout.
func (c *Config) ServerTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
