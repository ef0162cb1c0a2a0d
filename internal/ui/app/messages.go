// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/plinng/clarity-tui/internal/backend"
)

// =============================================================================
// MESSAGES
// =============================================================================

// InitialStateMsg reports the result of the mount-time state load.
type InitialStateMsg struct {
	Err error
}

// StreamDoneMsg reports that a chat streaming cycle finished. The store
// already holds the final state; Err carries only what the user has not
// already been shown through the store's error surface.
type StreamDoneMsg struct {
	Err error
}

// RefreshDoneMsg reports a manual or periodic state refresh.
type RefreshDoneMsg struct {
	Err error
}

// SessionsLoadedMsg delivers the session list for the picker. FromCache
// marks stale data shown because the backend was unreachable.
type SessionsLoadedMsg struct {
	Sessions  []backend.SessionInfo
	FromCache bool
}

// SessionSwitchedMsg reports a session load, new-project or delete cycle
// completing.
type SessionSwitchedMsg struct {
	Err error
}

// OpDoneMsg reports a non-streaming backend operation (planner, PRD, CRM
// fetch, project update) completing.
type OpDoneMsg struct {
	Err error
}

// refreshTickMsg drives the periodic background refresh.
type refreshTickMsg struct{}
