// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer wraps a glamour renderer with width-aware caching. The
// brief and PRD panes re-render on every state change; rebuilding the glamour
// pipeline each time is the expensive part, so one renderer is kept per
// width.
type MarkdownRenderer struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
	width    int
	dark     bool
}

// NewMarkdownRenderer creates a renderer for the given theme mode.
func NewMarkdownRenderer(dark bool) *MarkdownRenderer {
	return &MarkdownRenderer{dark: dark}
}

// Render renders markdown for terminal display at the given wrap width.
// Returns the input unchanged when rendering fails; raw markdown beats a
// blank pane.
func (m *MarkdownRenderer) Render(content string, width int) string {
	if content == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.renderer == nil || m.width != width {
		style := "light"
		if m.dark {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content
		}
		m.renderer = r
		m.width = width
	}

	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
