// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/plinng/clarity-tui/internal/ui/styles"
	"github.com/plinng/clarity-tui/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar renders the bottom line: session, pipeline step, connectivity
// and key hints.
type StatusBar struct {
	theme *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme}
}

// StatusInfo is everything the bar displays.
type StatusInfo struct {
	SessionID   string
	ProjectName string
	CurrentStep string
	Screen      string
	Loading     bool
	ErrMsg      string
}

// View renders the bar at the given width.
func (sb *StatusBar) View(info StatusInfo, width int) string {
	var left []string

	if info.ProjectName != "" {
		left = append(left, sb.theme.StatusStep.Render(util.TruncateRunes(info.ProjectName, 24)))
	}
	if info.CurrentStep != "" {
		left = append(left, sb.theme.StatusStep.Render(info.CurrentStep))
	}
	if info.Screen != "" {
		left = append(left, info.Screen)
	}
	if info.SessionID != "" {
		left = append(left, sb.theme.SessionMeta.Render(shortID(info.SessionID)))
	}

	var status string
	switch {
	case info.ErrMsg != "":
		status = sb.theme.StatusError.Render(styles.StatusIndicators.Error + " " + info.ErrMsg)
	case info.Loading:
		status = sb.theme.StatusStep.Render(styles.StatusIndicators.Pending + " working")
	default:
		status = sb.theme.StatusOnline.Render(styles.StatusIndicators.Active + " ready")
	}

	hints := sb.theme.ShortcutKey.Render("tab") + sb.theme.ShortcutDesc.Render(" panes ") +
		sb.theme.ShortcutKey.Render("^s") + sb.theme.ShortcutDesc.Render(" sessions ") +
		sb.theme.ShortcutKey.Render("^c") + sb.theme.ShortcutDesc.Render(" quit")

	leftStr := strings.Join(left, sb.theme.ShortcutDesc.Render(" | "))
	rightStr := status + "  " + hints

	gap := width - lipgloss.Width(leftStr) - lipgloss.Width(rightStr) - 2
	if gap < 1 {
		gap = 1
	}

	return sb.theme.StatusBar.Width(width).Render(
		leftStr + strings.Repeat(" ", gap) + rightStr,
	)
}

// shortID abbreviates a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
