// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package screens

import (
	"testing"

	"github.com/plinng/clarity-tui/internal/state"
)

// =============================================================================
// SCREEN ROUTING TESTS
// =============================================================================

func TestActiveScreen_ByStep(t *testing.T) {
	tests := []struct {
		step string
		want Screen
	}{
		{state.StepIntake, ScreenResearch},
		{state.StepResearch, ScreenResearch},
		{state.StepStrategy, ScreenBlueprint},
		{state.StepUX, ScreenBlueprint},
		{state.StepPlanning, ScreenBlueprint},
		{state.StepSEO, ScreenPreview},
		{state.StepCopywriting, ScreenPreview},
		{state.StepPRD, ScreenPreview},
		{state.StepBuilding, ScreenPreview},
	}

	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			s := state.Default()
			s.CurrentStep = tt.step
			if got := ActiveScreen(s); got != tt.want {
				t.Errorf("ActiveScreen(step=%s) = %s, want %s", tt.step, got, tt.want)
			}
		})
	}
}

// TestActiveScreen_LaterStageWinsTieBreak: a state with both research facts
// and blueprint artifacts routes to blueprint.
func TestActiveScreen_LaterStageWinsTieBreak(t *testing.T) {
	s := state.Default()
	s.CurrentStep = "unknown_step"
	s.ProjectName = "Acme"
	s.Industry = "retail"
	s.ProjectBrief = "# Brief"

	if got := ActiveScreen(s); got != ScreenBlueprint {
		t.Errorf("ActiveScreen = %s, want %s", got, ScreenBlueprint)
	}

	// Generated code pushes past blueprint too.
	s.GeneratedCode = "<html></html>"
	if got := ActiveScreen(s); got != ScreenPreview {
		t.Errorf("ActiveScreen = %s, want %s", got, ScreenPreview)
	}
}

func TestActiveScreen_DefaultsToResearch(t *testing.T) {
	s := state.Default()
	s.CurrentStep = "unknown_step"
	if got := ActiveScreen(s); got != ScreenResearch {
		t.Errorf("ActiveScreen = %s, want %s", got, ScreenResearch)
	}
	if got := ActiveScreen(nil); got != ScreenResearch {
		t.Errorf("ActiveScreen(nil) = %s, want %s", got, ScreenResearch)
	}
}

// Gate steps carry no screen of their own; artifacts decide.
func TestActiveScreen_GateSteps(t *testing.T) {
	s := state.Default()
	s.CurrentStep = state.StepStructureConfirm
	s.ProjectBrief = "# Brief"
	if got := ActiveScreen(s); got != ScreenBlueprint {
		t.Errorf("ActiveScreen = %s, want %s", got, ScreenBlueprint)
	}
}

// =============================================================================
// PREVIEW GUARD TESTS
// =============================================================================

func TestIsValidHTML(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"empty", "", false},
		{"whitespace", "   \n ", false},
		{"full document", "<!DOCTYPE html>\n<html><body>hi</body></html>", true},
		{"html tag only", "<html><head></head></html>", true},
		{"fragment", "<div class=\"hero\">Welcome</div>", true},
		{"traceback", "Traceback (most recent call last):\n  ValueError", false},
		{"python file path", "Error in generator.py line 10", false},
		{"txt artifact", "see output.txt for details", false},
		{"file quote", "File \"app.py\", line 3", false},
		{"server error page", "<html>500 Internal Server Error</html>", false},
		{"plain text", "hello world", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidHTML(tt.code); got != tt.want {
				t.Errorf("IsValidHTML(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}
