package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	API struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"api"`
	Auth struct {
		TokenFile string `yaml:"token_file"`
	} `yaml:"auth"`
	Chat struct {
		WelcomeMessage string `yaml:"welcome_message"`
	} `yaml:"chat"`
	Upload struct {
		MaxSizeMB int `yaml:"max_size_mb"`
	} `yaml:"upload"`
	Paths struct {
		CacheFile string `yaml:"cache_file"`
		LogFile   string `yaml:"log_file"`
	} `yaml:"paths"`
}

// Load loads configuration from file or returns defaults
func Load() (*Config, error) {
	cfg := Default()

	configPath := filepath.Join(configDir(), "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save() error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644)
}

// Timeout returns the API request timeout as a duration
func (c *Config) Timeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// MaxBytes returns the upload size cap in bytes
func (c *Config) MaxBytes() int64 {
	if c.Upload.MaxSizeMB <= 0 {
		return 50 * 1024 * 1024
	}
	return int64(c.Upload.MaxSizeMB) * 1024 * 1024
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.API.BaseURL = "http://localhost:8000"
	cfg.API.TimeoutSeconds = 120
	cfg.Chat.WelcomeMessage = "Hello! Upload a document or ask a question to get started."
	cfg.Upload.MaxSizeMB = 50

	dir := configDir()
	cfg.Auth.TokenFile = filepath.Join(dir, "token")
	cfg.Paths.CacheFile = filepath.Join(dir, "cache.db")
	cfg.Paths.LogFile = filepath.Join(dir, "docsage.log")

	return cfg
}

// configDir returns the directory holding config, token and cache files
func configDir() string {
	return filepath.Join(os.Getenv("HOME"), ".docsage")
}
