// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	require.Equal(t, 3, cfg.Backend.MaxRetries)
	require.Equal(t, "auto", cfg.UI.Theme)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"https url", func(c *Config) { c.Backend.BaseURL = "https://clarity.example.com" }, true},
		{"bad scheme", func(c *Config) { c.Backend.BaseURL = "ftp://host" }, false},
		{"not a url", func(c *Config) { c.Backend.BaseURL = "::::" }, false},
		{"negative retries", func(c *Config) { c.Backend.MaxRetries = -1 }, false},
		{"excessive retries", func(c *Config) { c.Backend.MaxRetries = 99 }, false},
		{"bad theme", func(c *Config) { c.UI.Theme = "solarized" }, false},
		{"negative width", func(c *Config) { c.UI.MarkdownWidth = -5 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				var verr ValidationError
				require.ErrorAs(t, err, &verr)
			}
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Backend.BaseURL = "http://backend:9000"
	cfg.UI.Theme = "dark"
	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "http://backend:9000", loaded.Backend.BaseURL)
	require.Equal(t, "dark", loaded.UI.Theme)
	// Fields absent from the file keep defaults.
	require.Equal(t, 3, loaded.Backend.MaxRetries)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CLARITY_BACKEND_URL", "http://env-host:8000")
	t.Setenv("CLARITY_THEME", "light")
	t.Setenv("CLARITY_MAX_RETRIES", "5")

	cfg := Default()
	applyEnvOverrides(cfg)
	require.Equal(t, "http://env-host:8000", cfg.Backend.BaseURL)
	require.Equal(t, "light", cfg.UI.Theme)
	require.Equal(t, 5, cfg.Backend.MaxRetries)
}

// TestConfig_ConcurrentAccess exercises Global/SetGlobal/ReloadGlobal under
// concurrency. Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()

		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
