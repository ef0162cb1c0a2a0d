// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/plinng/clarity-tui/internal/backend"
	"github.com/plinng/clarity-tui/internal/config"
	"github.com/plinng/clarity-tui/internal/orchestrator"
	"github.com/plinng/clarity-tui/internal/state"
	"github.com/plinng/clarity-tui/internal/store"
)

// noopBackend satisfies store.Backend without touching the network.
type noopBackend struct{}

func (noopBackend) FetchState(context.Context, string) (*state.WebsiteState, error) {
	return state.Default(), nil
}
func (noopBackend) NewSession(context.Context) (string, error) { return "test-session", nil }
func (noopBackend) ListSessions(context.Context) ([]backend.SessionInfo, error) {
	return nil, nil
}
func (noopBackend) DeleteSession(context.Context, string) error { return nil }
func (noopBackend) UpdateProject(context.Context, string, map[string]any) (*state.WebsiteState, error) {
	return state.Default(), nil
}
func (noopBackend) FetchExternalData(context.Context, string) (*state.WebsiteState, error) {
	return state.Default(), nil
}
func (noopBackend) RunPlanner(context.Context, string) (*state.WebsiteState, error) {
	return state.Default(), nil
}
func (noopBackend) RunPRD(context.Context, string) (*state.WebsiteState, error) {
	return state.Default(), nil
}

type noopStreamer struct{}

func (noopStreamer) ChatStream(context.Context, string, string, backend.ChunkCallback) error {
	return nil
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	st := store.New(noopBackend{}, &store.MemorySessionRepository{}, nil)
	orch := orchestrator.New(st, noopStreamer{})
	m := New(orch, config.Default())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func TestCurrentTab_FollowsScreenByDefault(t *testing.T) {
	m := newTestModel(t)

	if got := m.currentTab(); got != state.TabBrief {
		t.Errorf("fresh project tab = %s, want brief", got)
	}

	m.snapshot.Sitemap = []state.SitemapPage{{Title: "Home"}}
	m.snapshot.CurrentStep = state.StepPlanning
	if got := m.currentTab(); got != state.TabSitemap {
		t.Errorf("blueprint screen tab = %s, want sitemap", got)
	}

	m.snapshot.GeneratedCode = "<!DOCTYPE html><html></html>"
	m.snapshot.CurrentStep = state.StepBuilding
	if got := m.currentTab(); got != state.TabPreview {
		t.Errorf("preview screen tab = %s, want preview", got)
	}
}

func TestCurrentTab_ExplicitChoiceWins(t *testing.T) {
	m := newTestModel(t)
	m.snapshot.GeneratedCode = "<!DOCTYPE html><html></html>"
	m.snapshot.CurrentStep = state.StepBuilding

	m.activeTab = state.TabPRD

	if got := m.currentTab(); got != state.TabPRD {
		t.Errorf("explicit tab = %s, want prd", got)
	}
}

func TestCycleTab_WrapsAround(t *testing.T) {
	m := newTestModel(t)
	order := m.tabBar.Order()

	m.activeTab = order[len(order)-1]
	m.cycleTab(1)
	if m.activeTab != order[0] {
		t.Errorf("cycle past end = %s, want %s", m.activeTab, order[0])
	}

	m.cycleTab(-1)
	if m.activeTab != order[len(order)-1] {
		t.Errorf("cycle before start = %s, want %s", m.activeTab, order[len(order)-1])
	}
}

func TestUpdate_SessionsLoadedFillsPicker(t *testing.T) {
	m := newTestModel(t)

	m.Update(SessionsLoadedMsg{
		Sessions:  []backend.SessionInfo{{SessionID: "abc", ProjectName: "Bakery"}},
		FromCache: true,
	})

	if len(m.sessions.Sessions()) != 1 {
		t.Fatal("picker should hold the loaded session")
	}
	if !m.sessions.FromCache {
		t.Error("cache provenance should carry into the picker")
	}
}

func TestUpdate_SessionSwitchResetsTabState(t *testing.T) {
	m := newTestModel(t)
	m.activeTab = state.TabPRD
	m.showSessions = true

	m.Update(SessionSwitchedMsg{})

	if m.showSessions {
		t.Error("picker should close after a switch")
	}
	if m.activeTab != "" {
		t.Error("explicit tab choice should reset after a switch")
	}
}
