// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/plinng/clarity-tui/internal/orchestrator"
)

// refreshEvery is how often the background refresh fires while idle. The
// store's own rate limiter keeps bursts from reaching the backend.
const refreshEvery = 5 * time.Second

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// FetchInitialStateCmd loads or creates the session at mount time.
func FetchInitialStateCmd(orch *orchestrator.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		err := orch.Store().FetchInitialState(context.Background())
		return InitialStateMsg{Err: err}
	}
}

// SendMessageCmd runs one chat streaming cycle. The orchestrator drives the
// store as chunks arrive; the UI re-renders on spinner ticks.
func SendMessageCmd(orch *orchestrator.Orchestrator, message string) tea.Cmd {
	return func() tea.Msg {
		err := orch.SendMessage(context.Background(), message)
		return StreamDoneMsg{Err: err}
	}
}

// RefreshStateCmd re-fetches the active session's state.
func RefreshStateCmd(orch *orchestrator.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		err := orch.Store().RefreshState(context.Background())
		return RefreshDoneMsg{Err: err}
	}
}

// refreshTickCmd schedules the next periodic refresh.
func refreshTickCmd() tea.Cmd {
	return tea.Tick(refreshEvery, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

// LoadSessionsCmd fetches the session list, falling back to the local cache
// when the backend is unreachable.
func LoadSessionsCmd(orch *orchestrator.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		st := orch.Store()
		sessions := st.ListSessions(context.Background())
		if len(sessions) > 0 {
			return SessionsLoadedMsg{Sessions: sessions}
		}
		if st.Err() != "" {
			if cached := st.CachedSessions(); len(cached) > 0 {
				return SessionsLoadedMsg{Sessions: cached, FromCache: true}
			}
		}
		return SessionsLoadedMsg{Sessions: sessions}
	}
}

// SwitchSessionCmd loads another session's state.
func SwitchSessionCmd(orch *orchestrator.Orchestrator, sessionID string) tea.Cmd {
	return func() tea.Msg {
		err := orch.Store().LoadSession(context.Background(), sessionID)
		return SessionSwitchedMsg{Err: err}
	}
}

// NewProjectCmd starts a fresh backend session.
func NewProjectCmd(orch *orchestrator.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		err := orch.Store().StartNewProject(context.Background())
		return SessionSwitchedMsg{Err: err}
	}
}

// DeleteSessionCmd removes a session server-side, then reloads the list.
func DeleteSessionCmd(orch *orchestrator.Orchestrator, sessionID string) tea.Cmd {
	return func() tea.Msg {
		_ = orch.Store().DeleteSession(context.Background(), sessionID)
		st := orch.Store()
		sessions := st.ListSessions(context.Background())
		return SessionsLoadedMsg{Sessions: sessions}
	}
}

// RunPlannerCmd triggers sitemap generation.
func RunPlannerCmd(orch *orchestrator.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		err := orch.Store().RunPlanner(context.Background())
		return OpDoneMsg{Err: err}
	}
}

// RunPRDCmd triggers technical-spec generation.
func RunPRDCmd(orch *orchestrator.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		err := orch.Store().RunPRD(context.Background())
		return OpDoneMsg{Err: err}
	}
}

// FetchExternalDataCmd triggers the backend CRM lookup.
func FetchExternalDataCmd(orch *orchestrator.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		err := orch.Store().FetchExternalData(context.Background())
		return OpDoneMsg{Err: err}
	}
}
