package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.chatdesk/config.toml.
type Config struct {
	DefaultProfile string   `toml:"default_profile"`
	BackendURL     string   `toml:"backend_url"`
	APIToken       string   `toml:"api_token"`
	PollInterval   duration `toml:"poll_interval"`
	ActiveInterval duration `toml:"active_poll_interval"`
}

// duration lets intervals be written as "30s" in the TOML file.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		DefaultProfile: "default",
		PollInterval:   duration{30 * time.Second},
		ActiveInterval: duration{15 * time.Second},
	}
}

// Load reads config from the given path. Returns nil and an error if the
// file is missing or malformed.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Intervals returns the poll periods, falling back to defaults for zero
// values in an older config file.
func (c *Config) Intervals() (conversations, active time.Duration) {
	conversations = c.PollInterval.Duration
	if conversations <= 0 {
		conversations = 30 * time.Second
	}
	active = c.ActiveInterval.Duration
	if active <= 0 {
		active = 15 * time.Second
	}
	return conversations, active
}

func (c *Config) validate() error {
	if c.BackendURL == "" {
		return errors.New("backend_url is required")
	}
	return nil
}
