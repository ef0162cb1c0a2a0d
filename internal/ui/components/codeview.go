// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/plinng/clarity-tui/internal/screens"
	"github.com/plinng/clarity-tui/internal/ui/styles"
)

// =============================================================================
// CODE PREVIEW
// =============================================================================

// CodeView renders the generated website source as highlighted HTML. A
// terminal cannot execute the page, so the preview surface shows the code
// itself, guarded against backend diagnostics leaking in.
type CodeView struct {
	theme *styles.Theme
}

// NewCodeView creates a code preview renderer.
func NewCodeView(theme *styles.Theme) *CodeView {
	return &CodeView{theme: theme}
}

// Render produces the highlighted source view, with line numbers, or an
// explanatory placeholder when the code is missing or not displayable.
func (c *CodeView) Render(code string, maxWidth int) string {
	if strings.TrimSpace(code) == "" {
		return c.theme.PaneEmpty.Render("No website generated yet.")
	}
	if !screens.IsValidHTML(code) {
		return c.theme.PaneEmpty.Render("Build output is not displayable yet.")
	}

	highlighted := highlightHTML(code, c.theme.IsDark)
	lines := strings.Split(strings.TrimRight(highlighted, "\n"), "\n")

	lineNumStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Width(4).
		Align(lipgloss.Right).
		MarginRight(1)

	var out []string
	for i, line := range lines {
		out = append(out, lineNumStyle.Render(strconv.Itoa(i+1))+line)
	}

	if maxWidth < 20 {
		maxWidth = 20
	}
	return lipgloss.NewStyle().
		MaxWidth(maxWidth).
		Render(strings.Join(out, "\n"))
}

// highlightHTML runs chroma over the source. Returns the input unchanged
// when highlighting fails.
func highlightHTML(code string, dark bool) string {
	lexer := lexers.Get("html")
	if lexer == nil {
		lexer = lexers.Fallback
	}

	styleName := "github"
	if dark {
		styleName = "monokai"
	}
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return code
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var sb strings.Builder
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return code
	}
	return sb.String()
}
