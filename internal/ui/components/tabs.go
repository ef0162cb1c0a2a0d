// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/plinng/clarity-tui/internal/state"
	"github.com/plinng/clarity-tui/internal/ui/styles"
)

// =============================================================================
// ARTIFACT TAB BAR
// =============================================================================

// TabOrder is the fixed display order of artifact tabs in advanced mode.
var TabOrder = []state.ArtifactTab{
	state.TabBrief,
	state.TabSitemap,
	state.TabMarketing,
	state.TabPreview,
	state.TabPRD,
}

var titleCaser = cases.Title(language.English)

// TabBar renders the artifact tab strip with "new content" badges.
type TabBar struct {
	theme *styles.Theme
	order []state.ArtifactTab

	// badges holds tabs with unseen content; cleared per tab on visit.
	badges state.TabSet
}

// NewTabBar creates an empty tab bar.
func NewTabBar(theme *styles.Theme) *TabBar {
	return &TabBar{theme: theme, order: TabOrder, badges: state.TabSet{}}
}

// EnableActivity appends the agent activity tab to the strip.
func (tb *TabBar) EnableActivity() {
	for _, tab := range tb.order {
		if tab == state.TabActivity {
			return
		}
	}
	tb.order = append(append([]state.ArtifactTab{}, tb.order...), state.TabActivity)
}

// Order returns the tabs in display order.
func (tb *TabBar) Order() []state.ArtifactTab {
	return tb.order
}

// MarkChanged folds newly changed tabs into the badge set. The active tab
// never badges; the user is already looking at it.
func (tb *TabBar) MarkChanged(changed state.TabSet, active state.ArtifactTab) {
	for tab := range changed {
		if tab != active {
			tb.badges[tab] = true
		}
	}
}

// Visit clears the badge for a tab the user switched to.
func (tb *TabBar) Visit(tab state.ArtifactTab) {
	delete(tb.badges, tab)
}

// Reset drops all badges, for session switches.
func (tb *TabBar) Reset() {
	tb.badges = state.TabSet{}
}

// View renders the tab strip.
func (tb *TabBar) View(active state.ArtifactTab, hasContent func(state.ArtifactTab) bool) string {
	var parts []string
	for _, tab := range tb.order {
		label := tabLabel(tab)
		if tb.badges.Contains(tab) {
			label += tb.theme.TabBadge.Render(" *")
		}

		switch {
		case tab == active:
			parts = append(parts, tb.theme.TabActive.Render(label))
		case hasContent != nil && !hasContent(tab):
			parts = append(parts, tb.theme.TabDisabled.Render(label))
		default:
			parts = append(parts, tb.theme.Tab.Render(label))
		}
	}
	return tb.theme.TabBar.Render(strings.Join(parts, ""))
}

// tabLabel maps a tab to its display label.
func tabLabel(tab state.ArtifactTab) string {
	if tab == state.TabPRD {
		return "PRD"
	}
	return titleCaser.String(string(tab))
}
