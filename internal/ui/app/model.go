// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/plinng/clarity-tui/internal/config"
	"github.com/plinng/clarity-tui/internal/orchestrator"
	"github.com/plinng/clarity-tui/internal/state"
	"github.com/plinng/clarity-tui/internal/ui/components"
	"github.com/plinng/clarity-tui/internal/ui/styles"
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the top-level bubbletea model for the clarity TUI.
type Model struct {
	orch *orchestrator.Orchestrator
	cfg  *config.Config

	theme *styles.Theme

	// Components
	input     textinput.Model
	chatView  viewport.Model
	paneView  viewport.Model
	spinner   components.Spinner
	statusBar *components.StatusBar
	tabBar    *components.TabBar
	messages  *components.MessageView
	markdown  *components.MarkdownRenderer
	codeView  *components.CodeView
	sessions  *components.SessionList
	gate      *components.GatePrompt
	progress  *components.ProgressBar

	// snapshot is the last state copy rendered. Refreshed from the store on
	// every message, so streaming effects become visible on spinner ticks.
	snapshot *state.WebsiteState

	// activeTab is the artifact pane shown alongside chat. Empty means the
	// screen's default pane.
	activeTab state.ArtifactTab

	showSessions bool
	ready        bool
	width        int
	height       int
}

// New creates the TUI model.
func New(orch *orchestrator.Orchestrator, cfg *config.Config) *Model {
	theme := styles.NewTheme(cfg.UI.Theme)

	input := textinput.New()
	input.Placeholder = "Describe your website..."
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.PlaceholderStyle = theme.InputPlaceholder
	input.TextStyle = theme.InputText
	input.CharLimit = 4000
	input.Focus()

	tabBar := components.NewTabBar(theme)
	if cfg.UI.ShowActivity {
		tabBar.EnableActivity()
	}

	return &Model{
		orch:      orch,
		cfg:       cfg,
		theme:     theme,
		input:     input,
		spinner:   components.NewSpinner(theme),
		statusBar: components.NewStatusBar(theme),
		tabBar:    tabBar,
		messages:  components.NewMessageView(theme),
		markdown:  components.NewMarkdownRenderer(theme.IsDark),
		codeView:  components.NewCodeView(theme),
		sessions:  components.NewSessionList(theme),
		gate:      components.NewGatePrompt(theme),
		progress:  components.NewProgressBar(theme),
		snapshot:  state.Default(),
	}
}

// Init starts the initial state load and the background refresh loop.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		FetchInitialStateCmd(m.orch),
		refreshTickCmd(),
		textinput.Blink,
	)
}

// syncFromStore pulls the canonical state, folds changed-tab badges into the
// tab bar, and refreshes both viewports.
func (m *Model) syncFromStore() {
	m.snapshot = m.orch.Store().State()
	m.tabBar.MarkChanged(m.orch.Store().ConsumeChanges(), m.activeTab)
	m.refreshViewports()
}

// tabHasContent reports whether a tab has anything to show yet.
func (m *Model) tabHasContent(tab state.ArtifactTab) bool {
	s := m.snapshot
	switch tab {
	case state.TabBrief:
		return s.ProjectBrief != ""
	case state.TabSitemap:
		return s.HasSitemap()
	case state.TabMarketing:
		return len(s.SEOData) > 0 || len(s.Copywriting) > 0
	case state.TabPreview:
		return s.GeneratedCode != ""
	case state.TabPRD:
		return s.PRDDocument != ""
	case state.TabActivity:
		return len(s.Logs) > 0 || len(s.AgentReasoning) > 0 || len(s.ProgressEvents) > 0
	}
	return false
}
