// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for clarity.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides, loaded from ~/.clarity/config.toml.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/plinng/clarity-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete clarity client configuration.
type Config struct {
	Version string `toml:"version"`

	// Backend configuration
	Backend BackendConfig `toml:"backend"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// BackendConfig contains backend connection configuration.
type BackendConfig struct {
	// BaseURL is the URL of the clarity backend server
	BaseURL string `toml:"base_url"`
	// MaxRetries is how many times transient request failures are retried
	MaxRetries int `toml:"max_retries"`
	// RequestTimeoutSecs bounds non-streaming requests, in seconds
	RequestTimeoutSecs int `toml:"request_timeout_secs"`
}

// UIConfig contains terminal UI configuration.
type UIConfig struct {
	// Theme is the color theme name: "dark", "light", or "auto"
	Theme string `toml:"theme"`
	// MarkdownWidth is the wrap width for rendered markdown panes (0 = fit)
	MarkdownWidth int `toml:"markdown_width"`
	// ShowActivity enables the agent activity tab
	ShowActivity bool `toml:"show_activity"`
	// MouseEnabled enables mouse wheel scrolling in viewports
	MouseEnabled bool `toml:"mouse_enabled"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a configuration with all default values.
func Default() *Config {
	return &Config{
		Version: "1.0",
		Backend: BackendConfig{
			BaseURL:            "http://localhost:8000",
			MaxRetries:         3,
			RequestTimeoutSecs: 120,
		},
		UI: UIConfig{
			Theme:         "auto",
			MarkdownWidth: 0,
			ShowActivity:  true,
			MouseEnabled:  true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the clarity config directory (~/.clarity).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".clarity"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOADING
// =============================================================================

// Load loads configuration from the config file, falling back to defaults
// when no file exists. Environment overrides apply after file values.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	if _, statErr := os.Stat(path); statErr == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return Default(), fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid config at %s: %w", path, err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
// Fields absent from the file keep their current values.
func LoadTOML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("toml parse error: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies CLARITY_* environment variables over cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLARITY_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("CLARITY_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.MaxRetries = n
		}
	}
	if v := os.Getenv("CLARITY_THEME"); v != "" {
		cfg.UI.Theme = v
	}
}

// =============================================================================
// SAVING
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("toml encode error: %w", err)
	}
	return util.AtomicWriteFile(path, []byte(sb.String()), 0600)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate validates the configuration and returns the first error found.
func (c *Config) Validate() error {
	if c.Backend.BaseURL != "" {
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ValidationError{Field: "backend.base_url", Message: "must be a valid http(s) URL"}
		}
	}
	if c.Backend.MaxRetries < 0 || c.Backend.MaxRetries > 10 {
		return ValidationError{Field: "backend.max_retries", Message: "must be between 0 and 10"}
	}
	if c.Backend.RequestTimeoutSecs < 0 {
		return ValidationError{Field: "backend.request_timeout_secs", Message: "cannot be negative"}
	}
	switch c.UI.Theme {
	case "", "dark", "light", "auto":
	default:
		return ValidationError{Field: "ui.theme", Message: "must be dark, light, or auto"}
	}
	if c.UI.MarkdownWidth < 0 {
		return ValidationError{Field: "ui.markdown_width", Message: "cannot be negative"}
	}
	return nil
}

// =============================================================================
// GLOBAL CONFIG
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets global config state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
