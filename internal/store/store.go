// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the canonical application state and the session
// lifecycle around it.
//
// All mutation funnels through the Store's locked methods; it is the single
// writer for WebsiteState. The invariant maintained throughout: session
// identity and state always change together, in the same locked operation,
// so state from one session is never displayed against another session's
// identifier.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/plinng/clarity-tui/internal/backend"
	"github.com/plinng/clarity-tui/internal/protocol"
	"github.com/plinng/clarity-tui/internal/state"
)

// User-facing error messages. Raw errors never cross into the UI tree.
const (
	msgBackendUnreachable = "Failed to connect to backend. Is it running?"
	msgSendFailed         = "Failed to send message, please try again."
	msgListFailed         = "Could not load the session list."
	msgSessionExpired     = "Session expired, starting fresh."
)

// refreshBurst and refreshInterval bound how often manual refreshes can hit
// the backend.
const (
	refreshBurst    = 2
	refreshInterval = 500 * time.Millisecond
)

// Backend is the subset of the API client the store depends on.
type Backend interface {
	FetchState(ctx context.Context, sessionID string) (*state.WebsiteState, error)
	NewSession(ctx context.Context) (string, error)
	ListSessions(ctx context.Context) ([]backend.SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error
	UpdateProject(ctx context.Context, sessionID string, data map[string]any) (*state.WebsiteState, error)
	FetchExternalData(ctx context.Context, sessionID string) (*state.WebsiteState, error)
	RunPlanner(ctx context.Context, sessionID string) (*state.WebsiteState, error)
	RunPRD(ctx context.Context, sessionID string) (*state.WebsiteState, error)
}

// SessionCache receives the last-known session list so the picker can render
// while the backend is down. Optional.
type SessionCache interface {
	Put(sessions []backend.SessionInfo) error
	List() ([]backend.SessionInfo, error)
}

// =============================================================================
// STORE
// =============================================================================

// Store owns the canonical WebsiteState and the active session identifier.
type Store struct {
	mu sync.Mutex

	client Backend
	repo   SessionRepository
	cache  SessionCache

	state     *state.WebsiteState
	sessionID string

	errMsg string
	notice string

	// changed accumulates artifact categories with new content since the UI
	// last consumed them; feeds transient badges only.
	changed state.TabSet

	// pendingGate is the gate name awaiting user approval, if any.
	pendingGate string

	refreshLimiter *rate.Limiter
}

// New creates a store with default state. The cache may be nil.
func New(client Backend, repo SessionRepository, cache SessionCache) *Store {
	return &Store{
		client:         client,
		repo:           repo,
		cache:          cache,
		state:          state.Default(),
		changed:        state.TabSet{},
		refreshLimiter: rate.NewLimiter(rate.Every(refreshInterval), refreshBurst),
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns a deep copy of the current snapshot.
func (st *Store) State() *state.WebsiteState {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.Clone()
}

// SessionID returns the active session identifier.
func (st *Store) SessionID() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessionID
}

// Err returns the surfaced error message, or "".
func (st *Store) Err() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.errMsg
}

// Notice returns the transient notice message, or "".
func (st *Store) Notice() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.notice
}

// ClearError clears the surfaced error. Idempotent.
func (st *Store) ClearError() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.errMsg = ""
}

// SetError surfaces a human-readable error message.
func (st *Store) SetError(msg string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.errMsg = msg
}

// ConsumeChanges returns the artifact categories changed since the last
// call and resets the accumulator.
func (st *Store) ConsumeChanges() state.TabSet {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := st.changed
	st.changed = state.TabSet{}
	return out
}

// PendingGate returns the gate awaiting approval, or "".
func (st *Store) PendingGate() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pendingGate
}

// SetPendingGate records a gate-approval request from the stream.
func (st *Store) SetPendingGate(gate string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pendingGate = gate
}

// ClearPendingGate dismisses the pending gate.
func (st *Store) ClearPendingGate() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pendingGate = ""
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// FetchInitialState resolves or creates the persisted session identifier
// and loads its state from the backend, merged over defaults.
//
// A session the backend no longer knows is recovered silently: the stored
// id is discarded, a new one generated, state reset to defaults and the
// error cleared; the fresh empty session is presented as-is without an
// automatic retry. Any other failure surfaces a connectivity message and
// leaves state untouched, since the problem is presumed environmental.
func (st *Store) FetchInitialState(ctx context.Context) error {
	sid, err := st.repo.Load()
	if err != nil || sid == "" {
		sid = NewSessionID()
		if err := st.repo.Save(sid); err != nil {
			st.SetError(err.Error())
			return err
		}
	}
	return st.fetchFor(ctx, sid)
}

// RefreshState re-fetches the active session's state. Rate limited;
// redundant calls inside the window are dropped silently. Idempotent.
func (st *Store) RefreshState(ctx context.Context) error {
	if !st.refreshLimiter.Allow() {
		return nil
	}
	st.mu.Lock()
	sid := st.sessionID
	st.mu.Unlock()
	if sid == "" {
		return st.FetchInitialState(ctx)
	}
	return st.fetchFor(ctx, sid)
}

// LoadSession switches the persisted identifier to targetID and re-fetches
// state for it, exactly as the initial load does.
func (st *Store) LoadSession(ctx context.Context, targetID string) error {
	if err := st.repo.Save(targetID); err != nil {
		st.SetError(err.Error())
		return err
	}
	return st.fetchFor(ctx, targetID)
}

// StartNewProject requests a fresh session from the backend, persists its
// identifier and resets state to defaults, independent of any previous
// session's data.
func (st *Store) StartNewProject(ctx context.Context) error {
	sid, err := st.client.NewSession(ctx)
	if err != nil {
		st.SetError(msgBackendUnreachable)
		return err
	}
	if err := st.repo.Save(sid); err != nil {
		st.SetError(err.Error())
		return err
	}
	st.resetTo(sid, "")
	return nil
}

// ListSessions enumerates backend sessions for the picker. Failures degrade
// to an empty list plus a surfaced error; they never propagate a panic or
// block the rest of the UI.
func (st *Store) ListSessions(ctx context.Context) []backend.SessionInfo {
	sessions, err := st.client.ListSessions(ctx)
	if err != nil {
		st.SetError(msgListFailed)
		return []backend.SessionInfo{}
	}
	if st.cache != nil {
		// Cache write failure is not worth surfacing.
		_ = st.cache.Put(sessions)
	}
	return sessions
}

// CachedSessions returns the last-known session list from the local cache.
// Used when the backend is unreachable; empty when no cache is configured.
func (st *Store) CachedSessions() []backend.SessionInfo {
	if st.cache == nil {
		return nil
	}
	sessions, err := st.cache.List()
	if err != nil {
		return nil
	}
	return sessions
}

// DeleteSession removes a session server-side. Deleting the active session
// leaves local state alone; the next refresh will recover via the
// session-invalid path.
func (st *Store) DeleteSession(ctx context.Context, sessionID string) error {
	return st.client.DeleteSession(ctx, sessionID)
}

// fetchFor loads state for sid and installs it together with the session
// identifier under one lock.
func (st *Store) fetchFor(ctx context.Context, sid string) error {
	fetched, err := st.client.FetchState(ctx, sid)
	if err != nil {
		if errors.Is(err, backend.ErrSessionInvalid) {
			// Recover: discard the dead id, mint a new one, reset to
			// defaults. No automatic retry; the empty session stands.
			_ = st.repo.Clear()
			fresh := NewSessionID()
			if saveErr := st.repo.Save(fresh); saveErr != nil {
				st.SetError(saveErr.Error())
				return saveErr
			}
			st.resetTo(fresh, msgSessionExpired)
			return nil
		}
		st.SetError(msgBackendUnreachable)
		return err
	}

	cleanMarkdownFields(fetched)
	fetched.SessionID = sid

	st.mu.Lock()
	defer st.mu.Unlock()
	st.mergeChanges(state.DetectChanges(st.state, fetched))
	st.state = fetched
	st.sessionID = sid
	st.errMsg = ""
	return nil
}

// resetTo installs default state for a new session id.
func (st *Store) resetTo(sid, notice string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := state.Default()
	s.SessionID = sid
	st.state = s
	st.sessionID = sid
	st.errMsg = ""
	st.notice = notice
	st.changed = state.TabSet{}
	st.pendingGate = ""
}

// =============================================================================
// STATE MUTATION
// =============================================================================

// ApplySnapshot replaces the canonical state wholesale with a backend
// snapshot, normalizing markdown artifacts on ingest and recording which
// artifact categories changed.
func (st *Store) ApplySnapshot(next *state.WebsiteState) {
	if next == nil {
		return
	}
	cleanMarkdownFields(next)

	st.mu.Lock()
	defer st.mu.Unlock()
	if next.SessionID == "" {
		next.SessionID = st.sessionID
	}
	st.mergeChanges(state.DetectChanges(st.state, next))
	st.state = next
}

// UpdateState applies a mutation function to a copy of the current state
// and installs the result. A prd_document touched by the mutation is passed
// through markdown cleanup; left untouched it keeps its previously cleaned
// value as-is.
func (st *Store) UpdateState(mutate func(*state.WebsiteState)) {
	st.mu.Lock()
	defer st.mu.Unlock()

	next := st.state.Clone()
	prevPRD := next.PRDDocument
	mutate(next)
	if next.PRDDocument != prevPRD {
		next.PRDDocument = protocol.CleanMarkdown(next.PRDDocument)
	}
	st.mergeChanges(state.DetectChanges(st.state, next))
	st.state = next
}

// UpdateChatHistory applies a pure transform to the chat sequence only,
// leaving every other field untouched. This is the narrow channel the
// streaming driver uses to mutate the trailing message without racing other
// state fields.
func (st *Store) UpdateChatHistory(transform func([]state.ChatMessage) []state.ChatMessage) {
	st.mu.Lock()
	defer st.mu.Unlock()

	history := make([]state.ChatMessage, len(st.state.ChatHistory))
	copy(history, st.state.ChatHistory)
	st.state.ChatHistory = transform(history)
}

// mergeChanges folds newly changed categories into the badge accumulator.
// Caller must hold the lock.
func (st *Store) mergeChanges(changes state.TabSet) {
	for tab := range changes {
		st.changed[tab] = true
	}
}

// cleanMarkdownFields normalizes the long-form markdown/HTML artifacts in
// place.
func cleanMarkdownFields(s *state.WebsiteState) {
	s.ProjectBrief = protocol.CleanMarkdown(s.ProjectBrief)
	s.PRDDocument = protocol.CleanMarkdown(s.PRDDocument)
	s.GeneratedCode = protocol.CleanMarkdown(s.GeneratedCode)
}

// =============================================================================
// PROJECT OPERATIONS
// =============================================================================

// UpdateProject pushes form facts to the backend and applies the resulting
// snapshot.
func (st *Store) UpdateProject(ctx context.Context, data map[string]any) error {
	return st.applyOp(func(sid string) (*state.WebsiteState, error) {
		return st.client.UpdateProject(ctx, sid, data)
	})
}

// FetchExternalData runs the backend CRM lookup and applies the result.
func (st *Store) FetchExternalData(ctx context.Context) error {
	return st.applyOp(func(sid string) (*state.WebsiteState, error) {
		return st.client.FetchExternalData(ctx, sid)
	})
}

// RunPlanner triggers sitemap generation and applies the result.
func (st *Store) RunPlanner(ctx context.Context) error {
	return st.applyOp(func(sid string) (*state.WebsiteState, error) {
		return st.client.RunPlanner(ctx, sid)
	})
}

// RunPRD triggers technical-spec generation and applies the result.
func (st *Store) RunPRD(ctx context.Context) error {
	return st.applyOp(func(sid string) (*state.WebsiteState, error) {
		return st.client.RunPRD(ctx, sid)
	})
}

// applyOp runs a state-returning backend operation for the active session
// and installs its snapshot.
func (st *Store) applyOp(op func(sid string) (*state.WebsiteState, error)) error {
	st.mu.Lock()
	sid := st.sessionID
	st.mu.Unlock()

	next, err := op(sid)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			st.SetError(apiErr.Detail)
		} else {
			st.SetError(msgBackendUnreachable)
		}
		return err
	}
	st.ApplySnapshot(next)
	return nil
}
