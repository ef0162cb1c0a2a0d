// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/plinng/clarity-tui/internal/backend"
	"github.com/plinng/clarity-tui/internal/ui/styles"
	"github.com/plinng/clarity-tui/internal/util"
)

// =============================================================================
// SESSION PICKER
// =============================================================================

// SessionList is the modal picker over backend sessions.
type SessionList struct {
	theme    *styles.Theme
	sessions []backend.SessionInfo
	cursor   int

	// FromCache marks the list as stale data shown while the backend is
	// unreachable.
	FromCache bool
}

// NewSessionList creates an empty picker.
func NewSessionList(theme *styles.Theme) *SessionList {
	return &SessionList{theme: theme}
}

// SetSessions replaces the picker contents and clamps the cursor.
func (sl *SessionList) SetSessions(sessions []backend.SessionInfo, fromCache bool) {
	sl.sessions = sessions
	sl.FromCache = fromCache
	if sl.cursor >= len(sessions) {
		sl.cursor = 0
	}
}

// Sessions returns the current entries.
func (sl *SessionList) Sessions() []backend.SessionInfo {
	return sl.sessions
}

// MoveUp moves the cursor up one entry.
func (sl *SessionList) MoveUp() {
	if sl.cursor > 0 {
		sl.cursor--
	}
}

// MoveDown moves the cursor down one entry.
func (sl *SessionList) MoveDown() {
	if sl.cursor < len(sl.sessions)-1 {
		sl.cursor++
	}
}

// Selected returns the entry under the cursor, or nil when empty.
func (sl *SessionList) Selected() *backend.SessionInfo {
	if len(sl.sessions) == 0 {
		return nil
	}
	return &sl.sessions[sl.cursor]
}

// View renders the picker box.
func (sl *SessionList) View(width int) string {
	title := sl.theme.PaneTitle.Render("Sessions")
	if sl.FromCache {
		title += " " + sl.theme.SessionMeta.Render("(cached)")
	}

	var rows []string
	rows = append(rows, title, "")

	if len(sl.sessions) == 0 {
		rows = append(rows, sl.theme.SessionMeta.Render("No sessions yet."))
	}

	for i, s := range sl.sessions {
		name := s.ProjectName
		if name == "" {
			name = "(unnamed project)"
		}
		// Display-width truncation keeps columns aligned for CJK names.
		name = runewidth.FillRight(runewidth.Truncate(name, 28, "..."), 28)
		line := fmt.Sprintf("%s  %s",
			name,
			sl.theme.SessionMeta.Render(s.CurrentStep),
		)
		if s.UpdatedAt != "" {
			line += "  " + sl.theme.SessionMeta.Render(util.TruncateRunes(s.UpdatedAt, 19))
		}

		if i == sl.cursor {
			rows = append(rows, sl.theme.SessionItemSelected.Render(line))
		} else {
			rows = append(rows, sl.theme.SessionItem.Render(line))
		}
	}

	rows = append(rows, "", sl.theme.ShortcutKey.Render("enter")+sl.theme.ShortcutDesc.Render(" open ")+
		sl.theme.ShortcutKey.Render("n")+sl.theme.ShortcutDesc.Render(" new ")+
		sl.theme.ShortcutKey.Render("d")+sl.theme.ShortcutDesc.Render(" delete ")+
		sl.theme.ShortcutKey.Render("esc")+sl.theme.ShortcutDesc.Render(" close"))

	box := sl.theme.SessionList.MaxWidth(width - 4)
	return box.Render(strings.Join(rows, "\n"))
}
