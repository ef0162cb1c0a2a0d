// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local session-list cache.
//
// The backend owns all project state; the only thing cached client-side is
// the last-known GET /sessions payload, so the session picker can render
// something useful while the backend is unreachable. The cache is a small
// SQLite database under the user's clarity directory and is always safe to
// delete.
package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/plinng/clarity-tui/internal/backend"
)

// DefaultDatabaseName is the cache file name under the config directory.
const DefaultDatabaseName = "sessions.db"

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id   TEXT PRIMARY KEY,
	created_at   TEXT NOT NULL DEFAULT '',
	updated_at   TEXT NOT NULL DEFAULT '',
	project_name TEXT NOT NULL DEFAULT '',
	current_step TEXT NOT NULL DEFAULT ''
);
`

// =============================================================================
// SESSION CACHE
// =============================================================================

// SessionCache persists the last-known backend session list.
type SessionCache struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if necessary) the cache database at dir.
func Open(dir string) (*SessionCache, error) {
	path := filepath.Join(dir, DefaultDatabaseName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init session cache: %w", err)
	}
	return &SessionCache{db: db}, nil
}

// Close releases the database handle.
func (c *SessionCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}

// Put replaces the cached list with the given sessions.
func (c *SessionCache) Put(sessions []backend.SessionInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear session cache: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO sessions (session_id, created_at, updated_at, project_name, current_step)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare cache insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range sessions {
		if _, err := stmt.Exec(s.SessionID, s.CreatedAt, s.UpdatedAt, s.ProjectName, s.CurrentStep); err != nil {
			return fmt.Errorf("failed to cache session %s: %w", s.SessionID, err)
		}
	}

	return tx.Commit()
}

// List returns the cached sessions, most recently updated first.
func (c *SessionCache) List() ([]backend.SessionInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(`
		SELECT session_id, created_at, updated_at, project_name, current_step
		FROM sessions
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read session cache: %w", err)
	}
	defer rows.Close()

	var out []backend.SessionInfo
	for rows.Next() {
		var s backend.SessionInfo
		if err := rows.Scan(&s.SessionID, &s.CreatedAt, &s.UpdatedAt, &s.ProjectName, &s.CurrentStep); err != nil {
			return nil, fmt.Errorf("failed to scan cached session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes one session from the cache.
func (c *SessionCache) Delete(sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.db.Exec(`DELETE FROM sessions WHERE session_id = ?`, sessionID)
	return err
}
