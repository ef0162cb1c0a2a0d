// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

// logFileName is the diagnostic log under the config directory.
const logFileName = "clarity.log"

// LogPath returns the path of the diagnostic log file.
func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, logFileName), nil
}

// SetupLogging redirects the default logger to the log file. The TUI owns
// the terminal, so stderr is never a valid sink while it runs; when the file
// cannot be opened the logger is silenced instead. The returned file is nil
// in that case. Callers should close it on exit.
func SetupLogging() *os.File {
	path, err := LogPath()
	if err != nil {
		log.SetOutput(io.Discard)
		return nil
	}
	if err := EnsureConfigDir(); err != nil {
		log.SetOutput(io.Discard)
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		log.SetOutput(io.Discard)
		return nil
	}

	log.SetOutput(f)
	return f
}
