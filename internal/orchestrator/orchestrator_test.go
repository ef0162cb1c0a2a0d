// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plinng/clarity-tui/internal/backend"
	"github.com/plinng/clarity-tui/internal/state"
	"github.com/plinng/clarity-tui/internal/store"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

// stubBackend satisfies store.Backend for session plumbing; only FetchState
// and NewSession matter here.
type stubBackend struct {
	fetchState func(sid string) (*state.WebsiteState, error)
}

func (s *stubBackend) FetchState(_ context.Context, sid string) (*state.WebsiteState, error) {
	if s.fetchState != nil {
		return s.fetchState(sid)
	}
	return state.Default(), nil
}

func (s *stubBackend) NewSession(context.Context) (string, error) { return "sid-new", nil }

func (s *stubBackend) ListSessions(context.Context) ([]backend.SessionInfo, error) {
	return nil, nil
}

func (s *stubBackend) DeleteSession(context.Context, string) error { return nil }

func (s *stubBackend) UpdateProject(_ context.Context, _ string, _ map[string]any) (*state.WebsiteState, error) {
	return state.Default(), nil
}

func (s *stubBackend) FetchExternalData(_ context.Context, _ string) (*state.WebsiteState, error) {
	return state.Default(), nil
}

func (s *stubBackend) RunPlanner(_ context.Context, _ string) (*state.WebsiteState, error) {
	return state.Default(), nil
}

func (s *stubBackend) RunPRD(_ context.Context, _ string) (*state.WebsiteState, error) {
	return state.Default(), nil
}

// funcStreamer adapts a function to driver.Streamer.
type funcStreamer func(ctx context.Context, sessionID, message string, cb backend.ChunkCallback) error

func (f funcStreamer) ChatStream(ctx context.Context, sessionID, message string, cb backend.ChunkCallback) error {
	return f(ctx, sessionID, message, cb)
}

func newStoreWithSession(t *testing.T, sb *stubBackend) *store.Store {
	t.Helper()
	st := store.New(sb, &store.MemorySessionRepository{}, nil)
	require.NoError(t, st.FetchInitialState(context.Background()))
	return st
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestSendMessage_HappyPath(t *testing.T) {
	sb := &stubBackend{}
	st := newStoreWithSession(t, sb)

	o := New(st, funcStreamer(func(_ context.Context, sid, msg string, cb backend.ChunkCallback) error {
		require.Equal(t, st.SessionID(), sid)
		require.Equal(t, "hello", msg)
		cb(`answer|||STATE_UPDATE|||` +
			`{"current_step":"research","project_name":"Acme",` +
			`"chat_history":[{"role":"user","content":"hello"},{"role":"assistant","content":"raw dump"}]}`)
		return nil
	}))

	require.NoError(t, o.SendMessage(context.Background(), "hello"))
	require.False(t, o.Loading())

	got := st.State()
	require.Equal(t, "Acme", got.ProjectName)
	require.Len(t, got.ChatHistory, 2)
	require.Equal(t, "hello", got.ChatHistory[0].Content)
	require.Equal(t, "answer", got.ChatHistory[1].Content)
}

func TestSendMessage_EmptyInputIgnored(t *testing.T) {
	st := newStoreWithSession(t, &stubBackend{})
	called := false
	o := New(st, funcStreamer(func(context.Context, string, string, backend.ChunkCallback) error {
		called = true
		return nil
	}))

	require.NoError(t, o.SendMessage(context.Background(), "   "))
	require.False(t, called)
}

// TestSendMessage_RejectsOverlap: a second send while one is in flight is
// dropped without touching the stream.
func TestSendMessage_RejectsOverlap(t *testing.T) {
	st := newStoreWithSession(t, &stubBackend{})

	started := make(chan struct{})
	release := make(chan struct{})
	calls := 0

	var o *Orchestrator
	o = New(st, funcStreamer(func(context.Context, string, string, backend.ChunkCallback) error {
		calls++
		close(started)
		<-release
		return nil
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = o.SendMessage(context.Background(), "first")
	}()

	<-started
	require.True(t, o.Loading())
	require.NoError(t, o.SendMessage(context.Background(), "second"))
	require.Equal(t, 1, calls)

	close(release)
	<-done
	require.False(t, o.Loading())
}

// TestSendMessage_ErrorSurfacesAndRollsBack: transport failure surfaces the
// fixed retry message and leaves only the user's message in history.
func TestSendMessage_ErrorSurfacesAndRollsBack(t *testing.T) {
	st := newStoreWithSession(t, &stubBackend{})
	streamErr := errors.New("boom")
	o := New(st, funcStreamer(func(_ context.Context, _, _ string, cb backend.ChunkCallback) error {
		cb("partial")
		return streamErr
	}))

	err := o.SendMessage(context.Background(), "hello")
	require.ErrorIs(t, err, streamErr)
	require.Equal(t, "Failed to send message, please try again.", st.Err())

	history := st.State().ChatHistory
	require.Len(t, history, 1)
	require.Equal(t, state.RoleUser, history[0].Role)
}

// TestSendMessage_SessionInvalidReestablishes: the backend forgetting the
// session mid-send triggers recovery, not a surfaced failure.
func TestSendMessage_SessionInvalidReestablishes(t *testing.T) {
	sb := &stubBackend{}
	st := newStoreWithSession(t, sb)
	oldSID := st.SessionID()

	sb.fetchState = func(sid string) (*state.WebsiteState, error) {
		if sid == oldSID {
			return nil, backend.ErrSessionInvalid
		}
		return state.Default(), nil
	}

	o := New(st, funcStreamer(func(context.Context, string, string, backend.ChunkCallback) error {
		return backend.ErrSessionInvalid
	}))

	require.NoError(t, o.SendMessage(context.Background(), "hello"))
	require.NotEqual(t, oldSID, st.SessionID())
	require.Empty(t, st.Err())
}

// TestSendMessage_StaleStreamDiscarded: effects from a stream started under
// a previous session never land after a switch.
func TestSendMessage_StaleStreamDiscarded(t *testing.T) {
	sb := &stubBackend{}
	st := newStoreWithSession(t, sb)

	o := New(st, funcStreamer(func(_ context.Context, _, _ string, cb backend.ChunkCallback) error {
		// Session switches mid-stream.
		require.NoError(t, st.LoadSession(context.Background(), "sid-other"))
		cb(`stale|||STATE_UPDATE|||{"project_name":"StaleProject"}`)
		return nil
	}))

	require.NoError(t, o.SendMessage(context.Background(), "hello"))

	got := st.State()
	require.NotEqual(t, "StaleProject", got.ProjectName)
	require.Empty(t, got.ChatHistory)
}
