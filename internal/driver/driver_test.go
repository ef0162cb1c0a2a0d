// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plinng/clarity-tui/internal/backend"
	"github.com/plinng/clarity-tui/internal/protocol"
	"github.com/plinng/clarity-tui/internal/state"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

// scriptStreamer replays a fixed chunk sequence to the callback, then
// returns err.
type scriptStreamer struct {
	chunks []string
	err    error
}

func (s *scriptStreamer) ChatStream(_ context.Context, _, _ string, cb backend.ChunkCallback) error {
	for _, c := range s.chunks {
		cb(c)
	}
	return s.err
}

// harness collects driver effects into inspectable fields.
type harness struct {
	chat    []state.ChatMessage
	applied []*state.WebsiteState
	gates   []string
}

func (h *harness) effects() Effects {
	return Effects{
		ApplyState: func(s *state.WebsiteState) { h.applied = append(h.applied, s) },
		UpdateChat: func(transform func([]state.ChatMessage) []state.ChatMessage) {
			h.chat = transform(h.chat)
		},
		OnGate: func(g string) { h.gates = append(h.gates, g) },
	}
}

func run(t *testing.T, chunks []string, streamErr error) (*harness, error) {
	t.Helper()
	h := &harness{}
	d := New(&scriptStreamer{chunks: chunks, err: streamErr}, h.effects())
	err := d.Send(context.Background(), "sid-1", "make me a website")
	return h, err
}

// =============================================================================
// STREAMING SCENARIO TESTS
// =============================================================================

// TestSend_FullArtifactTurn walks a realistic sitemap turn: plain tokens,
// an artifact marker, suppressed noise, then the snapshot.
func TestSend_FullArtifactTurn(t *testing.T) {
	snapshot := `{"current_step":"planning","sitemap":[{"title":"Home","purpose":"landing","sections":["hero"]}]}`
	chunks := []string{
		"Let me desi",
		"gn that. ",
		"\U0001F3D7️ **Sitemap ",
		"Architect**",
		" thinking about pages...",
		"|||STATE_UPDATE|||" + snapshot[:20],
		snapshot[20:],
	}

	h, err := run(t, chunks, nil)
	require.NoError(t, err)

	// Exactly one snapshot applied.
	require.Len(t, h.applied, 1)
	require.True(t, h.applied[0].HasSitemap())

	// History: optimistic user message plus the finished assistant entry.
	require.Len(t, h.chat, 2)
	require.Equal(t, state.RoleUser, h.chat[0].Role)
	require.Equal(t, "make me a website", h.chat[0].Content)
	require.Equal(t, protocol.SitemapReadyMessage, h.chat[1].Content)
}

// TestSend_PlaceholderWhileSuppressing checks the chat shows the transient
// placeholder during an artifact phase and tokens after the marker never
// surface.
func TestSend_PlaceholderWhileSuppressing(t *testing.T) {
	h := &harness{}
	d := New(&scriptStreamer{chunks: []string{
		"**Sitemap Architect**",
		"internal reasoning the user must not see",
	}}, h.effects())

	require.NoError(t, d.Send(context.Background(), "sid-1", "go"))

	require.Len(t, h.chat, 2)
	require.Equal(t, protocol.SitemapPlaceholder, h.chat[1].Content)
}

// TestSend_PlainChatTurn: no markers at all, the trailing message tracks the
// accumulated buffer.
func TestSend_PlainChatTurn(t *testing.T) {
	h, err := run(t, []string{"What colors ", "do you prefer?"}, nil)
	require.NoError(t, err)

	require.Len(t, h.chat, 2)
	require.Equal(t, "What colors do you prefer?", h.chat[1].Content)
	require.Empty(t, h.applied)
}

// TestSend_MarkerSplitAcrossChunks: detection runs over the whole buffer, so
// a marker arriving one byte at a time still fires exactly once.
func TestSend_MarkerSplitAcrossChunks(t *testing.T) {
	marker := "**Sitemap Architect**"
	var chunks []string
	for i := 0; i < len(marker); i++ {
		chunks = append(chunks, marker[i:i+1])
	}

	h, err := run(t, chunks, nil)
	require.NoError(t, err)
	require.Equal(t, protocol.SitemapPlaceholder, h.chat[1].Content)
}

// TestSend_GateActionFiresOnce: repeated scans of the same buffer report a
// gate a single time.
func TestSend_GateActionFiresOnce(t *testing.T) {
	snapshot := `{"current_step":"direction_lock"}`
	h, err := run(t, []string{
		"Direction is ready. [GATE_ACTION: BLUEPRINT]",
		"|||STATE_UPDATE|||" + snapshot,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"BLUEPRINT"}, h.gates)
}

// =============================================================================
// ROLLBACK TESTS
// =============================================================================

// TestSend_RollbackOnStreamError: a failed stream removes exactly the
// trailing assistant placeholder. The user's message stays.
func TestSend_RollbackOnStreamError(t *testing.T) {
	streamErr := errors.New("connection reset")
	h, err := run(t, []string{"partial tok"}, streamErr)
	require.ErrorIs(t, err, streamErr)

	require.Len(t, h.chat, 1)
	require.Equal(t, state.RoleUser, h.chat[0].Role)
	require.Equal(t, "make me a website", h.chat[0].Content)
}

// TestSend_NoRollbackAfterSnapshot: an error after the snapshot landed must
// not undo the confirmed message.
func TestSend_NoRollbackAfterSnapshot(t *testing.T) {
	snapshot := `{"current_step":"planning","sitemap":[{"title":"Home"}]}`
	h, err := run(t, []string{
		"|||STATE_UPDATE|||" + snapshot,
	}, errors.New("late failure"))
	require.Error(t, err)

	require.Len(t, h.applied, 1)
	require.Len(t, h.chat, 2)
	require.Equal(t, protocol.SitemapReadyMessage, h.chat[1].Content)
}

// TestSend_SessionInvalidPassesThrough keeps the sentinel unwrapped for the
// caller's errors.Is check.
func TestSend_SessionInvalidPassesThrough(t *testing.T) {
	_, err := run(t, nil, backend.ErrSessionInvalid)
	require.ErrorIs(t, err, backend.ErrSessionInvalid)
}

// =============================================================================
// IDEMPOTENCE TESTS
// =============================================================================

// TestSend_BufferResetAfterSnapshot: content after an applied snapshot is a
// fresh turn, not a replay of the same sentinel.
func TestSend_BufferResetAfterSnapshot(t *testing.T) {
	snapshot := `{"current_step":"intake"}`
	h, err := run(t, []string{
		"done|||STATE_UPDATE|||" + snapshot,
		" trailing pleasantries",
	}, nil)
	require.NoError(t, err)

	// One apply, and the trailing text replaced the confirmation as a new
	// plain-token turn.
	require.Len(t, h.applied, 1)
	require.Equal(t, " trailing pleasantries", h.chat[1].Content)
}
