// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/plinng/clarity-tui/internal/util"
)

// =============================================================================
// SESSION REPOSITORY
// =============================================================================

// SessionRepository abstracts where the client keeps its one persisted
// session identifier. The id is the sole key correlating this client to
// backend-held state; isolating it here keeps the streaming logic unaware of
// the storage mechanism.
type SessionRepository interface {
	// Load returns the stored session id, or "" when none is stored.
	Load() (string, error)

	// Save persists the session id, replacing any previous one.
	Save(id string) error

	// Clear removes the stored session id.
	Clear() error
}

// NewSessionID generates a fresh client-side session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// =============================================================================
// FILE-BACKED REPOSITORY
// =============================================================================

// sessionFileName is the fixed storage key under the config directory.
const sessionFileName = "session_id"

// FileSessionRepository persists the session id as a single file in the
// user's clarity directory, written atomically.
type FileSessionRepository struct {
	path string
}

// NewFileSessionRepository creates a repository rooted at dir. An empty dir
// uses the default config directory (~/.clarity).
func NewFileSessionRepository(dir string) *FileSessionRepository {
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &FileSessionRepository{path: filepath.Join(dir, sessionFileName)}
}

// DefaultConfigDir returns the per-user clarity directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".clarity"
	}
	return filepath.Join(home, ".clarity")
}

// Load implements SessionRepository.
func (r *FileSessionRepository) Load() (string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read session id: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save implements SessionRepository.
func (r *FileSessionRepository) Save(id string) error {
	return util.AtomicWriteFile(r.path, []byte(id+"\n"), 0600)
}

// Clear implements SessionRepository.
func (r *FileSessionRepository) Clear() error {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session id: %w", err)
	}
	return nil
}

// =============================================================================
// IN-MEMORY REPOSITORY
// =============================================================================

// MemorySessionRepository keeps the session id in memory. Used by tests and
// by ephemeral runs that should not touch the user's config directory.
type MemorySessionRepository struct {
	id string
}

// Load implements SessionRepository.
func (r *MemorySessionRepository) Load() (string, error) { return r.id, nil }

// Save implements SessionRepository.
func (r *MemorySessionRepository) Save(id string) error { r.id = id; return nil }

// Clear implements SessionRepository.
func (r *MemorySessionRepository) Clear() error { r.id = ""; return nil }
