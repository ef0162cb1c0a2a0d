// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/plinng/clarity-tui/internal/state"
	"github.com/plinng/clarity-tui/internal/ui/styles"
)

// =============================================================================
// PIPELINE PROGRESS
// =============================================================================

// pipelineStages is the linear display order of backend steps. Gate steps
// render as part of the stage they guard rather than as stages of their own.
var pipelineStages = []string{
	state.StepIntake,
	state.StepResearch,
	state.StepStrategy,
	state.StepUX,
	state.StepPlanning,
	state.StepSEO,
	state.StepCopywriting,
	state.StepPRD,
	state.StepBuilding,
}

// gateToStage positions the gate checkpoints inside the linear flow.
var gateToStage = map[string]string{
	state.StepDirectionLock:    state.StepResearch,
	state.StepStructureConfirm: state.StepPlanning,
	state.StepReveal:           state.StepBuilding,
}

// ProgressBar renders the pipeline stage strip.
type ProgressBar struct {
	theme *styles.Theme
}

// NewProgressBar creates a progress strip renderer.
func NewProgressBar(theme *styles.Theme) *ProgressBar {
	return &ProgressBar{theme: theme}
}

// View renders the strip with completed, active and pending stages.
func (p *ProgressBar) View(currentStep string) string {
	if mapped, ok := gateToStage[currentStep]; ok {
		currentStep = mapped
	}

	activeIdx := -1
	for i, stage := range pipelineStages {
		if stage == currentStep {
			activeIdx = i
			break
		}
	}

	var parts []string
	for i, stage := range pipelineStages {
		switch {
		case activeIdx >= 0 && i < activeIdx:
			parts = append(parts, p.theme.StageDone.Render(stage))
		case i == activeIdx:
			parts = append(parts, p.theme.StageActive.Render("["+stage+"]"))
		default:
			parts = append(parts, p.theme.StagePending.Render(stage))
		}
	}
	return strings.Join(parts, p.theme.StagePending.Render(" > "))
}
