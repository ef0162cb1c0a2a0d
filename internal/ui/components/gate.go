// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/plinng/clarity-tui/internal/ui/styles"
)

// =============================================================================
// GATE APPROVAL PROMPT
// =============================================================================

// gateLabels maps backend gate names to a human question.
var gateLabels = map[string]string{
	"INTAKE_&_AUDIT": "Lock in the project direction?",
	"BLUEPRINT":      "Approve the site structure?",
	"MARKETING":      "Approve the marketing content?",
}

// GatePrompt renders the approval box shown when the pipeline reaches a
// checkpoint that waits for the user.
type GatePrompt struct {
	theme *styles.Theme
}

// NewGatePrompt creates a gate prompt renderer.
func NewGatePrompt(theme *styles.Theme) *GatePrompt {
	return &GatePrompt{theme: theme}
}

// View renders the prompt for the named gate.
func (g *GatePrompt) View(gate string, width int) string {
	question, ok := gateLabels[gate]
	if !ok {
		question = "Continue to the next stage?"
	}

	body := []string{
		g.theme.GateTitle.Render("Checkpoint: " + gate),
		"",
		question,
		"",
		g.theme.GateButton.Render(" y approve ") + "  " +
			g.theme.ShortcutDesc.Render("n keep editing"),
	}

	box := g.theme.GateBox.MaxWidth(width - 4)
	return box.Render(strings.Join(body, "\n"))
}
