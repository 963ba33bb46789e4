package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Logging
	LogLevel string `json:"log_level" toml:"log_level" yaml:"log_level"`

	// Storage
	StorePath string `json:"store_path" toml:"store_path" yaml:"store_path"`

	// Device
	DeviceName string `json:"device_name" toml:"device_name" yaml:"device_name"`

	// Account
	Login   string `json:"login" toml:"login" yaml:"login"` // Phone number of the paired device
	Passive bool   `json:"passive" toml:"passive" yaml:"passive"`

	// Timeout bounds a whole send. Zero waits forever.
	Timeout     time.Duration `json:"-" toml:"-" yaml:"-"`
	TimeoutSecs int           `json:"timeout_secs" toml:"timeout_secs" yaml:"timeout_secs"`

	// How long an upload is reused instead of uploading the same file again.
	UploadCacheTTL  time.Duration `json:"-" toml:"-" yaml:"-"`
	UploadCacheDays int           `json:"upload_cache_days" toml:"upload_cache_days" yaml:"upload_cache_days"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultStore := filepath.Join(homeDir, ".wasend")

	return &Config{
		LogLevel:        "ERROR",
		StorePath:       defaultStore,
		DeviceName:      "wasend",
		Passive:         true,
		UploadCacheDays: 7,
		UploadCacheTTL:  7 * 24 * time.Hour,
	}
}

// LoadFromFile loads configuration from a JSON, TOML or YAML file, picked by
// extension.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if file doesn't exist
		}
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json", "":
		err = json.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyUnits()
	return cfg, nil
}

// Load loads configuration with defaults, then the file at configPath (if
// any), then a .env file in the working directory, then WASEND_*
// environment variables.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if configPath != "" {
		var err error
		if cfg, err = LoadFromFile(configPath); err != nil {
			return nil, err
		}
	}

	// Variables already set in the environment win over .env.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// Environment variable overrides
	if v := os.Getenv("WASEND_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WASEND_STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("WASEND_DEVICE_NAME"); v != "" {
		cfg.DeviceName = v
	}
	if v := os.Getenv("WASEND_LOGIN"); v != "" {
		cfg.Login = v
	}
	if v := os.Getenv("WASEND_PASSIVE"); v != "" {
		cfg.Passive = v == "true" || v == "1"
	}
	if v := os.Getenv("WASEND_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("WASEND_UPLOAD_CACHE_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.UploadCacheDays = days
		}
	}

	cfg.applyUnits()
	return cfg, nil
}

// applyUnits converts the integer fields into durations.
func (c *Config) applyUnits() {
	c.Timeout = time.Duration(c.TimeoutSecs) * time.Second
	if c.UploadCacheDays < 0 {
		c.UploadCacheDays = 0
	}
	c.UploadCacheTTL = time.Duration(c.UploadCacheDays) * 24 * time.Hour
}

// DBPath returns the path of the SQLite database.
func (c *Config) DBPath() string {
	return filepath.Join(c.StorePath, "wasend.db")
}

// EnsureStorePath creates the store directory if it doesn't exist.
func (c *Config) EnsureStorePath() error {
	return os.MkdirAll(c.StorePath, 0700)
}
