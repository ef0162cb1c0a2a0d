// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package screens derives which progressive screen and advanced-mode tab
// should be active from the current website state.
//
// Everything here is a pure predicate over a state snapshot: no side
// effects, safe to call on every render, never persisted. Recomputing from
// state on each change is what keeps the routing from drifting out of sync
// with the pipeline.
package screens

import (
	"strings"

	"github.com/plinng/clarity-tui/internal/state"
)

// Screen names the three progressive UI stages.
type Screen string

// The three screens, in pipeline order.
const (
	ScreenResearch  Screen = "research"
	ScreenBlueprint Screen = "blueprint"
	ScreenPreview   Screen = "preview"
)

// =============================================================================
// SCREEN PREDICATES
// =============================================================================

// ShouldShowResearchScreen reports whether the intake/research stage applies.
// Known project facts keep it true even when a refresh lands before the step
// name has caught up.
func ShouldShowResearchScreen(s *state.WebsiteState) bool {
	if s == nil {
		return false
	}
	switch s.CurrentStep {
	case state.StepIntake, state.StepResearch:
		return true
	}
	return s.ProjectName != "" || s.Industry != ""
}

// ShouldShowBlueprintScreen reports whether the strategy/planning stage
// applies, either by step name or because blueprint artifacts already exist.
func ShouldShowBlueprintScreen(s *state.WebsiteState) bool {
	if s == nil {
		return false
	}
	switch s.CurrentStep {
	case state.StepStrategy, state.StepUX, state.StepPlanning:
		return true
	}
	return s.ProjectBrief != "" || s.HasSitemap()
}

// ShouldShowPreviewScreen reports whether the build/preview stage applies.
func ShouldShowPreviewScreen(s *state.WebsiteState) bool {
	if s == nil {
		return false
	}
	switch s.CurrentStep {
	case state.StepSEO, state.StepCopywriting, state.StepPRD, state.StepBuilding:
		return true
	}
	return s.GeneratedCode != ""
}

// ActiveScreen resolves the single screen to display. Later stages win the
// tie-break: once blueprint data exists it takes priority over research even
// while research-only fields are still present, and preview wins over both.
// Defaults to research when nothing matches.
func ActiveScreen(s *state.WebsiteState) Screen {
	switch {
	case ShouldShowPreviewScreen(s):
		return ScreenPreview
	case ShouldShowBlueprintScreen(s):
		return ScreenBlueprint
	case ShouldShowResearchScreen(s):
		return ScreenResearch
	}
	return ScreenResearch
}

// =============================================================================
// PREVIEW GUARD
// =============================================================================

// diagnosticFragments are substrings that mark a payload as backend
// diagnostics rather than a website: interpreter tracebacks, file paths and
// server error pages must never render as a preview.
var diagnosticFragments = []string{
	"Traceback",
	"most recent call last",
	"Internal Server Error",
	".txt",
	".py",
	"File \"",
}

// IsValidHTML guards the preview surface against displaying backend error
// payloads as if they were a generated website. It accepts anything that
// looks like an HTML document or fragment and rejects empty input or content
// carrying diagnostic-looking substrings.
func IsValidHTML(code string) bool {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return false
	}

	for _, frag := range diagnosticFragments {
		if strings.Contains(trimmed, frag) {
			return false
		}
	}

	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "<!doctype html") || strings.Contains(lower, "<html") {
		return true
	}

	// Fragment form: starts with a tag and closes at least one.
	return strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, ">")
}
