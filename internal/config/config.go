// Package config loads the kvzd TOML configuration.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ServerConfig configures the kvzd daemon.
type ServerConfig struct {
	// Bind is the client-facing listen endpoint.
	Bind string `toml:"bind"`
	// Workers is the request worker count; 1 serves from a plain REP
	// socket, more switches to the ROUTER worker pool.
	Workers int `toml:"workers"`
	// Shards is the in-memory store shard count.
	Shards int `toml:"shards"`
	// MetricsAddr exposes Prometheus metrics over HTTP when non-empty,
	// e.g. ":9090". Empty disables the listener.
	MetricsAddr string `toml:"metrics_addr"`
}

// DefaultServerConfig returns the daemon defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Bind:    "tcp://0.0.0.0:5555",
		Workers: 8,
		Shards:  64,
	}
}

// LoadServerConfig reads path, fills defaults for absent fields, and
// validates the result.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// ValidateServerConfig rejects configurations the server cannot run with.
func ValidateServerConfig(cfg ServerConfig) error {
	if cfg.Bind == "" {
		return fmt.Errorf("config invalid: bind must not be empty")
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("config invalid: workers must be >= 1, got %d", cfg.Workers)
	}
	if cfg.Shards < 1 {
		return fmt.Errorf("config invalid: shards must be >= 1, got %d", cfg.Shards)
	}
	return nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}
