// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSetupLogging_WritesToFile verifies the default logger lands in the
// config-directory log file rather than stderr, which the TUI owns.
func TestSetupLogging_WritesToFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	f := SetupLogging()
	require.NotNil(t, f)
	defer f.Close()

	log.Printf("API Request: GET /state")

	path, err := LogPath()
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "API Request: GET /state")
}

// TestSetupLogging_SilencesOnFailure ensures a broken home directory never
// leaves the logger pointed at stderr.
func TestSetupLogging_SilencesOnFailure(t *testing.T) {
	tmp := t.TempDir()
	// A file where the config dir should be makes MkdirAll fail.
	require.NoError(t, os.WriteFile(tmp+"/.clarity", []byte("x"), 0600))
	t.Setenv("HOME", tmp)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	f := SetupLogging()
	require.Nil(t, f)

	// Must not panic or write anywhere visible.
	log.Printf("dropped line")
}
