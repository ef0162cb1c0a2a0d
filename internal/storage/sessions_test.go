// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plinng/clarity-tui/internal/backend"
)

func openTestCache(t *testing.T) *SessionCache {
	t.Helper()
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSessionCache_PutAndList(t *testing.T) {
	c := openTestCache(t)

	sessions := []backend.SessionInfo{
		{SessionID: "a", ProjectName: "Acme", CurrentStep: "intake", UpdatedAt: "2026-08-01T10:00:00"},
		{SessionID: "b", ProjectName: "Bravo", CurrentStep: "planning", UpdatedAt: "2026-08-02T10:00:00"},
	}
	require.NoError(t, c.Put(sessions))

	got, err := c.List()
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Most recently updated first.
	require.Equal(t, "b", got[0].SessionID)
	require.Equal(t, "Acme", got[1].ProjectName)
}

// TestSessionCache_PutReplaces: each Put is a full replacement of the
// last-known list, not an append.
func TestSessionCache_PutReplaces(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Put([]backend.SessionInfo{
		{SessionID: "a", ProjectName: "Old"},
		{SessionID: "stale"},
	}))
	require.NoError(t, c.Put([]backend.SessionInfo{
		{SessionID: "a", ProjectName: "New"},
	}))

	got, err := c.List()
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "New", got[0].ProjectName)
}

func TestSessionCache_Delete(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Put([]backend.SessionInfo{
		{SessionID: "a"}, {SessionID: "b"},
	}))
	require.NoError(t, c.Delete("a"))

	got, err := c.List()
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "b", got[0].SessionID)

	// Deleting a missing id is a no-op.
	require.NoError(t, c.Delete("missing"))
}

func TestSessionCache_EmptyList(t *testing.T) {
	c := openTestCache(t)
	got, err := c.List()
	require.NoError(t, err)
	require.Empty(t, got)
}
