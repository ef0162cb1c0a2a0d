// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// gateApprovalMessage is what gets sent when the user approves a pending
// gate. The backend routes on intent, so a plain confirmation advances it.
const gateApprovalMessage = "Approved, let's move forward."

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all incoming messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.layout()
		m.ready = true
		m.syncFromStore()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		cmd := m.spinner.Update(msg)
		if m.spinner.Active() {
			// Streaming effects land on the store between ticks. Re-read so
			// partial assistant text shows up as it arrives.
			m.syncFromStore()
		}
		return m, cmd

	case InitialStateMsg:
		m.spinner.Stop()
		m.syncFromStore()
		m.chatView.GotoBottom()
		return m, nil

	case StreamDoneMsg:
		m.spinner.Stop()
		m.syncFromStore()
		m.chatView.GotoBottom()
		return m, nil

	case RefreshDoneMsg:
		m.syncFromStore()
		return m, nil

	case refreshTickMsg:
		if m.orch.Loading() || m.showSessions {
			return m, refreshTickCmd()
		}
		return m, tea.Batch(RefreshStateCmd(m.orch), refreshTickCmd())

	case SessionsLoadedMsg:
		m.sessions.SetSessions(msg.Sessions, msg.FromCache)
		return m, nil

	case SessionSwitchedMsg:
		m.showSessions = false
		m.activeTab = ""
		m.tabBar.Reset()
		m.syncFromStore()
		m.chatView.GotoBottom()
		return m, nil

	case OpDoneMsg:
		m.spinner.Stop()
		m.syncFromStore()
		return m, nil
	}

	return m, nil
}

// handleKey routes keyboard input by mode: session picker first, then the
// gate prompt, then the main chat surface.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.showSessions {
		return m.handleSessionKey(msg)
	}

	if gate := m.orch.Store().PendingGate(); gate != "" && m.input.Value() == "" {
		switch msg.String() {
		case "y", "Y":
			m.orch.Store().ClearPendingGate()
			m.spinner.SetMessage("Thinking")
			return m, tea.Batch(
				SendMessageCmd(m.orch, gateApprovalMessage),
				m.spinner.Start(),
			)
		case "n", "N":
			m.orch.Store().ClearPendingGate()
			return m, nil
		}
	}

	switch msg.Type {
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.orch.Loading() {
			return m, nil
		}
		m.input.Reset()
		m.spinner.SetMessage("Thinking")
		cmds := []tea.Cmd{
			SendMessageCmd(m.orch, text),
			m.spinner.Start(),
		}
		m.syncFromStore()
		return m, tea.Batch(cmds...)

	case tea.KeyTab:
		m.cycleTab(1)
		return m, nil

	case tea.KeyShiftTab:
		m.cycleTab(-1)
		return m, nil

	case tea.KeyCtrlS:
		m.showSessions = true
		return m, LoadSessionsCmd(m.orch)

	case tea.KeyCtrlN:
		m.spinner.SetMessage("Starting fresh")
		return m, tea.Batch(NewProjectCmd(m.orch), m.spinner.Start())

	case tea.KeyCtrlR:
		return m, RefreshStateCmd(m.orch)

	case tea.KeyCtrlP:
		m.spinner.SetMessage("Planning sitemap")
		return m, tea.Batch(RunPlannerCmd(m.orch), m.spinner.Start())

	case tea.KeyCtrlT:
		m.spinner.SetMessage("Drafting spec")
		return m, tea.Batch(RunPRDCmd(m.orch), m.spinner.Start())

	case tea.KeyCtrlE:
		m.spinner.SetMessage("Fetching business data")
		return m, tea.Batch(FetchExternalDataCmd(m.orch), m.spinner.Start())

	case tea.KeyEsc:
		m.orch.Store().ClearError()
		m.syncFromStore()
		return m, nil

	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSessionKey drives the session picker overlay.
func (m *Model) handleSessionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.showSessions = false
		return m, nil
	case "up", "k":
		m.sessions.MoveUp()
		return m, nil
	case "down", "j":
		m.sessions.MoveDown()
		return m, nil
	case "enter":
		if sel := m.sessions.Selected(); sel != nil {
			m.spinner.SetMessage("Loading session")
			return m, tea.Batch(
				SwitchSessionCmd(m.orch, sel.SessionID),
				m.spinner.Start(),
			)
		}
		return m, nil
	case "n":
		m.spinner.SetMessage("Starting fresh")
		return m, tea.Batch(NewProjectCmd(m.orch), m.spinner.Start())
	case "d":
		if sel := m.sessions.Selected(); sel != nil {
			return m, DeleteSessionCmd(m.orch, sel.SessionID)
		}
		return m, nil
	}
	return m, nil
}

// cycleTab moves the active artifact tab by delta, wrapping around.
func (m *Model) cycleTab(delta int) {
	order := m.tabBar.Order()
	cur := m.currentTab()
	idx := 0
	for i, t := range order {
		if t == cur {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(order)) % len(order)
	m.activeTab = order[idx]
	m.tabBar.Visit(m.activeTab)
	m.refreshViewports()
}
