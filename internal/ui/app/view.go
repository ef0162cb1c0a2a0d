// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/plinng/clarity-tui/internal/screens"
	"github.com/plinng/clarity-tui/internal/state"
	"github.com/plinng/clarity-tui/internal/ui/components"
)

// Fixed rows consumed outside the chat/pane viewports: header, progress
// strip, tab bar, spinner line, input, status bar.
const chromeHeight = 8

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the viewports and input for the current terminal dimensions.
func (m *Model) layout() {
	contentHeight := m.height - chromeHeight
	if contentHeight < 4 {
		contentHeight = 4
	}

	chatWidth := m.width * 11 / 20
	paneWidth := m.width - chatWidth - 1
	if paneWidth < 10 {
		paneWidth = 10
		chatWidth = m.width - paneWidth - 1
	}

	if !m.ready {
		m.chatView = viewport.New(chatWidth, contentHeight)
		m.paneView = viewport.New(paneWidth, contentHeight)
	} else {
		m.chatView.Width = chatWidth
		m.chatView.Height = contentHeight
		m.paneView.Width = paneWidth
		m.paneView.Height = contentHeight
	}

	m.input.Width = m.width - 6
}

// currentTab resolves the active artifact tab. When the user has not picked
// one explicitly, the screen's natural artifact is shown.
func (m *Model) currentTab() state.ArtifactTab {
	if m.activeTab != "" {
		return m.activeTab
	}
	switch screens.ActiveScreen(m.snapshot) {
	case screens.ScreenPreview:
		return state.TabPreview
	case screens.ScreenBlueprint:
		return state.TabSitemap
	default:
		return state.TabBrief
	}
}

// refreshViewports re-renders both panes from the current snapshot. The chat
// viewport sticks to the bottom while the user has not scrolled away.
func (m *Model) refreshViewports() {
	if !m.ready {
		return
	}
	atBottom := m.chatView.AtBottom()
	m.chatView.SetContent(m.renderChat())
	if atBottom {
		m.chatView.GotoBottom()
	}
	m.paneView.SetContent(m.renderPane(m.currentTab()))
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole application frame.
func (m *Model) View() string {
	if !m.ready {
		return "Starting clarity..."
	}

	if m.showSessions {
		return m.theme.App.Render(lipgloss.JoinVertical(lipgloss.Left,
			m.renderHeader(),
			m.sessions.View(m.width),
		))
	}

	sections := []string{
		m.renderHeader(),
		m.progress.View(m.snapshot.CurrentStep),
		m.tabBar.View(m.currentTab(), m.tabHasContent),
		lipgloss.JoinHorizontal(lipgloss.Top,
			m.chatView.View(),
			" ",
			m.theme.Pane.Render(m.paneView.View()),
		),
		m.renderActivityLine(),
		m.theme.InputContainer.Render(m.input.View()),
		m.renderStatusBar(),
	}

	return m.theme.App.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("Clarity")
	name := m.snapshot.ProjectName
	if name == "" {
		name = "Untitled project"
	}
	subtitle := m.theme.HeaderSubtitle.Render(name)
	return m.theme.Header.Render(title + "  " + subtitle)
}

// renderChat builds the scrollback: notices, then the conversation, then a
// gate prompt when one is pending.
func (m *Model) renderChat() string {
	var parts []string

	if notice := m.orch.Store().Notice(); notice != "" {
		parts = append(parts, m.theme.NoticeBubble.Render(notice))
	}

	parts = append(parts, m.messages.RenderHistory(m.snapshot.ChatHistory, m.chatView.Width))

	if gate := m.orch.Store().PendingGate(); gate != "" {
		parts = append(parts, m.gate.View(gate, m.chatView.Width))
	}

	return strings.Join(parts, "\n")
}

// renderActivityLine shows the spinner while work is in flight, otherwise a
// blank spacer row so the layout does not jump.
func (m *Model) renderActivityLine() string {
	if m.spinner.Active() {
		return m.spinner.View()
	}
	return ""
}

func (m *Model) renderStatusBar() string {
	st := m.orch.Store()
	return m.statusBar.View(components.StatusInfo{
		SessionID:   st.SessionID(),
		ProjectName: m.snapshot.ProjectName,
		CurrentStep: m.snapshot.CurrentStep,
		Screen:      string(screens.ActiveScreen(m.snapshot)),
		Loading:     m.orch.Loading(),
		ErrMsg:      st.Err(),
	}, m.width)
}

// =============================================================================
// ARTIFACT PANES
// =============================================================================

// renderPane renders the body of the active artifact tab.
func (m *Model) renderPane(tab state.ArtifactTab) string {
	width := m.paneView.Width - 2
	if limit := m.cfg.UI.MarkdownWidth; limit > 0 && width > limit {
		width = limit
	}
	if width < 10 {
		width = 10
	}

	switch tab {
	case state.TabBrief:
		return m.renderBrief(width)
	case state.TabSitemap:
		return m.renderSitemap(width)
	case state.TabMarketing:
		return m.renderMarketing(width)
	case state.TabPreview:
		return m.codeView.Render(m.snapshot.GeneratedCode, width)
	case state.TabPRD:
		return m.renderPRD(width)
	case state.TabActivity:
		return m.renderActivity()
	}
	return ""
}

func (m *Model) renderBrief(width int) string {
	if m.snapshot.ProjectBrief == "" {
		return m.theme.PaneEmpty.Render("No project brief yet. Tell me about your business.")
	}
	return m.markdown.Render(m.snapshot.ProjectBrief, width)
}

func (m *Model) renderSitemap(width int) string {
	if !m.snapshot.HasSitemap() {
		return m.theme.PaneEmpty.Render("The sitemap appears here once the structure is planned.")
	}
	var b strings.Builder
	b.WriteString(m.theme.PaneTitle.Render("Site structure"))
	b.WriteString("\n\n")
	for _, page := range m.snapshot.Sitemap {
		b.WriteString(m.theme.SitemapPage.Render(page.Title))
		b.WriteString("\n")
		if page.Purpose != "" {
			b.WriteString(m.theme.SitemapMeta.Render("  " + page.Purpose))
			b.WriteString("\n")
		}
		for _, section := range page.Sections {
			b.WriteString(m.theme.SitemapMeta.Render("  - " + section))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderMarketing(width int) string {
	if len(m.snapshot.SEOData) == 0 && len(m.snapshot.Copywriting) == 0 {
		return m.theme.PaneEmpty.Render("Marketing content lands here after the copywriting step.")
	}
	var b strings.Builder
	if len(m.snapshot.SEOData) > 0 {
		b.WriteString(m.theme.PaneTitle.Render("SEO"))
		b.WriteString("\n")
		b.WriteString(renderKV(m.snapshot.SEOData, m.theme.SitemapMeta))
		b.WriteString("\n")
	}
	if len(m.snapshot.Copywriting) > 0 {
		b.WriteString(m.theme.PaneTitle.Render("Copywriting"))
		b.WriteString("\n")
		b.WriteString(renderKV(m.snapshot.Copywriting, m.theme.SitemapMeta))
	}
	return b.String()
}

func (m *Model) renderPRD(width int) string {
	if m.snapshot.PRDDocument == "" {
		return m.theme.PaneEmpty.Render("The technical spec appears here once drafted.")
	}
	return m.markdown.Render(m.snapshot.PRDDocument, width)
}

// renderActivity shows backend diagnostics: agent reasoning, progress
// events, then raw logs, newest last.
func (m *Model) renderActivity() string {
	s := m.snapshot
	if len(s.Logs) == 0 && len(s.AgentReasoning) == 0 && len(s.ProgressEvents) == 0 {
		return m.theme.PaneEmpty.Render("Agent activity shows up here while the backend works.")
	}

	var b strings.Builder
	if len(s.AgentReasoning) > 0 {
		b.WriteString(m.theme.PaneTitle.Render("Agent reasoning"))
		b.WriteString("\n")
		for _, r := range s.AgentReasoning {
			b.WriteString(m.theme.SitemapPage.Render(r.AgentName))
			b.WriteString(m.theme.SitemapMeta.Render(fmt.Sprintf(" (%.0f%%)", r.Certainty*100)))
			b.WriteString("\n")
			b.WriteString(m.theme.SitemapMeta.Render("  " + r.Thought))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if len(s.ProgressEvents) > 0 {
		b.WriteString(m.theme.PaneTitle.Render("Progress"))
		b.WriteString("\n")
		for _, ev := range s.ProgressEvents {
			b.WriteString(renderKV(ev, m.theme.SitemapMeta))
		}
		b.WriteString("\n")
	}
	if len(s.Logs) > 0 {
		b.WriteString(m.theme.PaneTitle.Render("Logs"))
		b.WriteString("\n")
		for _, line := range s.Logs {
			b.WriteString(m.theme.SitemapMeta.Render("  " + line))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderKV prints a generic backend payload map with stable key order.
func renderKV(data map[string]any, style lipgloss.Style) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(style.Render(fmt.Sprintf("  %s: %v", k, data[k])))
		b.WriteString("\n")
	}
	return b.String()
}
