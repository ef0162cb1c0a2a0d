// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package state defines the canonical website-generation state shared
// between the backend pipeline and the TUI.
package state

import (
	"encoding/json"
)

// =============================================================================
// PIPELINE STEPS
// =============================================================================

// Step names as reported by the backend in current_step. The backend is the
// only writer of this field; the client never infers a step from chat text.
const (
	StepIntake      = "intake"
	StepResearch    = "research"
	StepStrategy    = "strategy"
	StepUX          = "ux"
	StepPlanning    = "planning"
	StepSEO         = "seo"
	StepCopywriting = "copywriting"
	StepPRD         = "prd"
	StepBuilding    = "building"

	// Gate steps: checkpoints that wait for explicit user approval.
	StepDirectionLock    = "direction_lock"
	StepStructureConfirm = "structure_confirm"
	StepReveal           = "reveal"
)

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// =============================================================================
// STATE TYPES
// =============================================================================

// SitemapPage describes one page in the generated sitemap.
type SitemapPage struct {
	Title    string   `json:"title"`
	Purpose  string   `json:"purpose"`
	Sections []string `json:"sections"`
}

// ChatMessage is a single entry in the conversation history. During
// streaming the trailing assistant message is mutated in place.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AgentReasoning records one agent thought with its certainty level.
type AgentReasoning struct {
	AgentName string  `json:"agent_name"`
	Thought   string  `json:"thought"`
	Certainty float64 `json:"certainty"`
}

// WebsiteState is the single canonical snapshot of a project. The backend
// delivers it wholesale inside streamed chat responses and from GET /state;
// the client replaces its copy rather than merging field by field, except at
// load time where a snapshot is merged over defaults so fields absent from
// an older session never go missing.
type WebsiteState struct {
	// User inputs
	ProjectName string   `json:"project_name"`
	Industry    string   `json:"industry"`
	BrandColors []string `json:"brand_colors"`
	DesignStyle string   `json:"design_style"`

	// Open map for extra user-supplied context
	AdditionalContext map[string]any `json:"additional_context"`

	// External data pulled by the backend
	CRMData map[string]any `json:"crm_data"`

	// Agent progress
	MissingInfo   []string      `json:"missing_info"`
	ProjectBrief  string        `json:"project_brief"`
	Sitemap       []SitemapPage `json:"sitemap"`
	PRDDocument   string        `json:"prd_document"`
	GeneratedCode string        `json:"generated_code"`

	// Status tracking
	CurrentStep string   `json:"current_step"`
	Logs        []string `json:"logs"`

	ChatHistory []ChatMessage `json:"chat_history"`

	// Extended architecture support
	ProjectMeta    map[string]any   `json:"project_meta"`
	AgentReasoning []AgentReasoning `json:"agent_reasoning"`
	ProgressEvents []map[string]any `json:"progress_events,omitempty"`
	SEOData        map[string]any   `json:"seo_data"`
	UXStrategy     map[string]any   `json:"ux_strategy"`
	Copywriting    map[string]any   `json:"copywriting"`
	ContextSummary string           `json:"context_summary"`

	// Backend session this snapshot belongs to
	SessionID string `json:"_session_id,omitempty"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a fresh state with the documented default values. This is
// the state shown at mount, after a reset, and under every merged snapshot.
func Default() *WebsiteState {
	return &WebsiteState{
		BrandColors:       []string{},
		AdditionalContext: map[string]any{},
		CRMData:           map[string]any{},
		MissingInfo:       []string{},
		Sitemap:           []SitemapPage{},
		CurrentStep:       StepIntake,
		Logs:              []string{},
		ChatHistory:       []ChatMessage{},
		ProjectMeta:       defaultProjectMeta(),
		AgentReasoning:    []AgentReasoning{},
	}
}

// defaultProjectMeta mirrors the backend's project_meta factory so the
// enrichment keys always exist.
func defaultProjectMeta() map[string]any {
	return map[string]any{
		"inferred":       map[string]any{},
		"user_overrides": map[string]any{},
		"field_mappings": map[string]any{},
		"field_visuals":  map[string]any{},
	}
}

// MergeOverDefaults decodes a raw snapshot over a fresh default state.
// Fields absent from the payload keep their defaults, so snapshots stored by
// an older backend never produce missing values.
func MergeOverDefaults(raw []byte) (*WebsiteState, error) {
	s := Default()
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, err
	}
	s.normalize()
	return s, nil
}

// normalize replaces nil collections with empty ones. The backend may emit
// null for crm_data and friends; downstream code indexes these without
// nil checks.
func (s *WebsiteState) normalize() {
	if s.BrandColors == nil {
		s.BrandColors = []string{}
	}
	if s.AdditionalContext == nil {
		s.AdditionalContext = map[string]any{}
	}
	if s.CRMData == nil {
		s.CRMData = map[string]any{}
	}
	if s.MissingInfo == nil {
		s.MissingInfo = []string{}
	}
	if s.Sitemap == nil {
		s.Sitemap = []SitemapPage{}
	}
	if s.Logs == nil {
		s.Logs = []string{}
	}
	if s.ChatHistory == nil {
		s.ChatHistory = []ChatMessage{}
	}
	if s.ProjectMeta == nil {
		s.ProjectMeta = defaultProjectMeta()
	}
	if s.AgentReasoning == nil {
		s.AgentReasoning = []AgentReasoning{}
	}
	if s.CurrentStep == "" {
		s.CurrentStep = StepIntake
	}
}

// =============================================================================
// SNAPSHOT HELPERS
// =============================================================================

// Clone returns a deep copy of the state. Snapshots handed to the UI must
// not alias the store's canonical copy.
func (s *WebsiteState) Clone() *WebsiteState {
	if s == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		// WebsiteState contains only JSON-encodable fields.
		c := *s
		return &c
	}
	c := Default()
	if err := json.Unmarshal(raw, c); err != nil {
		c2 := *s
		return &c2
	}
	c.normalize()
	return c
}

// LastMessage returns the trailing chat entry, or nil if history is empty.
func (s *WebsiteState) LastMessage() *ChatMessage {
	if len(s.ChatHistory) == 0 {
		return nil
	}
	return &s.ChatHistory[len(s.ChatHistory)-1]
}

// HasSitemap reports whether a non-empty sitemap exists.
func (s *WebsiteState) HasSitemap() bool {
	return len(s.Sitemap) > 0
}
