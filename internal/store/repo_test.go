// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewSessionID_IsUUID(t *testing.T) {
	id := NewSessionID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.NotEqual(t, id, NewSessionID())
}

func TestFileSessionRepository_RoundTrip(t *testing.T) {
	repo := NewFileSessionRepository(t.TempDir())

	// Empty before anything saved.
	id, err := repo.Load()
	require.NoError(t, err)
	require.Empty(t, id)

	require.NoError(t, repo.Save("sid-1"))
	id, err = repo.Load()
	require.NoError(t, err)
	require.Equal(t, "sid-1", id)

	// Save replaces.
	require.NoError(t, repo.Save("sid-2"))
	id, _ = repo.Load()
	require.Equal(t, "sid-2", id)

	require.NoError(t, repo.Clear())
	id, err = repo.Load()
	require.NoError(t, err)
	require.Empty(t, id)

	// Clear is idempotent.
	require.NoError(t, repo.Clear())
}
