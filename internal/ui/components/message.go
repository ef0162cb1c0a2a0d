// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/plinng/clarity-tui/internal/protocol"
	"github.com/plinng/clarity-tui/internal/state"
	"github.com/plinng/clarity-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MESSAGE RENDERING
// =============================================================================

// MessageView renders chat history entries as bubbles.
type MessageView struct {
	theme    *styles.Theme
	markdown *MarkdownRenderer
}

// NewMessageView creates a message renderer.
func NewMessageView(theme *styles.Theme) *MessageView {
	return &MessageView{
		theme:    theme,
		markdown: NewMarkdownRenderer(theme.IsDark),
	}
}

// RenderHistory renders the full conversation for the chat viewport.
func (mv *MessageView) RenderHistory(history []state.ChatMessage, width int) string {
	if len(history) == 0 {
		return mv.theme.PaneEmpty.Render("Describe the website you want to build.")
	}

	var parts []string
	for _, msg := range history {
		parts = append(parts, mv.renderMessage(msg, width))
	}
	return strings.Join(parts, "\n")
}

// renderMessage renders one bubble. Placeholder markers become progress
// labels; raw protocol text never reaches the screen.
func (mv *MessageView) renderMessage(msg state.ChatMessage, width int) string {
	bubbleWidth := width - 8
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	if msg.Role == state.RoleUser {
		bubble := mv.theme.UserBubble.MaxWidth(bubbleWidth).Render(msg.Content)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)
	}

	content := msg.Content
	switch content {
	case "":
		content = mv.theme.ThinkingText.Render("...")
	case protocol.SitemapPlaceholder:
		content = mv.theme.ThinkingText.Render("Designing your sitemap...")
	case protocol.PRDPlaceholder:
		content = mv.theme.ThinkingText.Render("Drafting the technical spec...")
	default:
		content = strings.TrimRight(mv.markdown.Render(content, bubbleWidth-4), "\n")
	}

	return mv.theme.AssistantBubble.MaxWidth(bubbleWidth).Render(content)
}
