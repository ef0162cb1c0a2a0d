// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plinng/clarity-tui/internal/state"
)

// =============================================================================
// STATE UPDATE PARSING TESTS
// =============================================================================

// TestParseStateUpdate_SentinelSplitAcrossChunks feeds a response in small
// chunks and asserts no snapshot is produced until the JSON suffix is
// complete, regardless of where the sentinel itself was split.
func TestParseStateUpdate_SentinelSplitAcrossChunks(t *testing.T) {
	full := `Here is your update.|||STATE_UPDATE|||{"project_name":"Acme","current_step":"research"}`

	for _, size := range []int{1, 3, 7, 16} {
		buffer := ""
		var got *state.WebsiteState
		applied := 0

		for i := 0; i < len(full); i += size {
			end := i + size
			if end > len(full) {
				end = len(full)
			}
			buffer += full[i:end]

			if s, ok := ParseStateUpdate(buffer); ok {
				got = s
				applied++
				break
			}
		}

		require.Equal(t, 1, applied, "chunk size %d", size)
		require.NotNil(t, got)
		require.Equal(t, "Acme", got.ProjectName)
		require.Equal(t, state.StepResearch, got.CurrentStep)
	}
}

// TestParseStateUpdate_PartialJSON confirms a truncated snapshot is a retry,
// never an error.
func TestParseStateUpdate_PartialJSON(t *testing.T) {
	buffer := `text|||STATE_UPDATE|||{"project_name":"Acme","sitemap":[{"title":"Home"`

	s, ok := ParseStateUpdate(buffer)
	require.False(t, ok)
	require.Nil(t, s)

	// Completing the JSON flips the result.
	buffer += `,"purpose":"landing","sections":[]}]}`
	s, ok = ParseStateUpdate(buffer)
	require.True(t, ok)
	require.True(t, s.HasSitemap())
}

// TestParseStateUpdate_NoSentinel leaves plain chat untouched.
func TestParseStateUpdate_NoSentinel(t *testing.T) {
	s, ok := ParseStateUpdate("Just a friendly answer with {json:looking} text")
	require.False(t, ok)
	require.Nil(t, s)
}

// TestParseStateUpdate_MergesOverDefaults checks that omitted fields keep
// their documented defaults instead of going nil.
func TestParseStateUpdate_MergesOverDefaults(t *testing.T) {
	s, ok := ParseStateUpdate(`|||STATE_UPDATE|||{"project_name":"Acme"}`)
	require.True(t, ok)
	require.NotNil(t, s.Sitemap)
	require.NotNil(t, s.ChatHistory)
	require.NotNil(t, s.CRMData)
	require.Equal(t, state.StepIntake, s.CurrentStep)
}

// TestParseStateUpdate_NullCollections verifies explicit nulls are
// normalized to empty collections.
func TestParseStateUpdate_NullCollections(t *testing.T) {
	s, ok := ParseStateUpdate(`|||STATE_UPDATE|||{"crm_data":null,"sitemap":null,"logs":null}`)
	require.True(t, ok)
	require.NotNil(t, s.CRMData)
	require.NotNil(t, s.Sitemap)
	require.NotNil(t, s.Logs)
}

func TestPrefix(t *testing.T) {
	require.Equal(t, "hello ", Prefix("hello |||STATE_UPDATE|||{}"))
	require.Equal(t, "no marker here", Prefix("no marker here"))
}

// =============================================================================
// ARTIFACT MARKER TESTS
// =============================================================================

func TestFirstArtifact(t *testing.T) {
	tests := []struct {
		name   string
		buffer string
		kind   ArtifactKind
		found  bool
	}{
		{"sitemap bold", "\U0001F3D7️ **Sitemap Architect** is on it", ArtifactSitemap, true},
		{"prd bold", "\U0001F4C4 **Technical Strategist** writing", ArtifactPRD, true},
		{"sitemap alt", "Architecting your sitemap structure...", ArtifactSitemap, true},
		{"prd alt", "Writing technical specifications now", ArtifactPRD, true},
		{"plain chat", "What colors do you prefer?", "", false},
		{"split marker incomplete", "**Sitemap Arch", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := FirstArtifact(tt.buffer)
			require.Equal(t, tt.found, ok)
			if ok {
				require.Equal(t, tt.kind, kind)
			}
		})
	}
}

func TestPlaceholder(t *testing.T) {
	require.Equal(t, SitemapPlaceholder, Placeholder(ArtifactSitemap))
	require.Equal(t, PRDPlaceholder, Placeholder(ArtifactPRD))
}

// =============================================================================
// GATE ACTION TESTS
// =============================================================================

func TestExtractGateActions(t *testing.T) {
	gates := ExtractGateActions("Ready? [GATE_ACTION: BLUEPRINT] and later [GATE_ACTION:MARKETING]")
	require.Equal(t, []string{"BLUEPRINT", "MARKETING"}, gates)

	require.Empty(t, ExtractGateActions("no gates in this text"))
}

func TestStripGateActions(t *testing.T) {
	out := stripGateActions("Approve below. [GATE_ACTION: INTAKE_&_AUDIT]")
	require.Equal(t, "Approve below. ", out)
}

// =============================================================================
// ASSISTANT MESSAGE TESTS
// =============================================================================

func TestAssistantMessage_Priorities(t *testing.T) {
	withSitemap := state.Default()
	withSitemap.Sitemap = []state.SitemapPage{{Title: "Home"}}

	withPRD := state.Default()
	withPRD.PRDDocument = "# PRD"

	withCode := state.Default()
	withCode.GeneratedCode = "<html></html>"

	tests := []struct {
		name string
		step string
		s    *state.WebsiteState
		raw  string
		want string
	}{
		{"planning step", state.StepPlanning, state.Default(), "", SitemapReadyMessage},
		{"sitemap present", state.StepResearch, withSitemap, "", SitemapReadyMessage},
		{"prd step", state.StepPRD, state.Default(), "", PRDReadyMessage},
		{"prd present", state.StepSEO, withPRD, "", PRDReadyMessage},
		{"building step", state.StepBuilding, state.Default(), "", BuildingMessage},
		{"code present", state.StepSEO, withCode, "", BuildingMessage},
		{"prefix text", state.StepIntake, state.Default(), "Tell me about your brand.", "Tell me about your brand."},
		{"empty prefix", state.StepIntake, state.Default(), "   \n ", GenericDoneMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, AssistantMessage(tt.step, tt.s, tt.raw))
		})
	}
}

// TestAssistantMessage_StripsMarkers asserts phase markers and gate actions
// never reach displayed text.
func TestAssistantMessage_StripsMarkers(t *testing.T) {
	raw := "**Sitemap Architect**\n\n\nLet's look at structure.\n[GATE_ACTION: BLUEPRINT]\n"
	got := AssistantMessage(state.StepIntake, state.Default(), raw)
	require.Equal(t, "Let's look at structure.", got)
}

// =============================================================================
// MARKDOWN CLEANUP TESTS
// =============================================================================

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "# Brief\n\nBody text.", "# Brief\n\nBody text."},
		{"escaped newlines", `line one\nline two`, "line one\nline two"},
		{"escaped quotes", `say \"hello\"`, `say "hello"`},
		{"escaped backslash kept", `C:\\Users\\me`, `C:\\Users\\me`},
		{"backslash shields quote", `a\\\"b`, `a\\"b`},
		{"backslash shields n", `dir\\name`, `dir\\name`},
		{"fenced document", "```markdown\n# Brief\nBody\n```", "# Brief\nBody"},
		{"fenced html", "```html\n<html></html>\n```", "<html></html>"},
		{"double fence", "```\n```markdown\n# Brief\n```\n```", "# Brief"},
		{"inner fence kept", "intro\n```go\ncode\n```\noutro", "intro\n```go\ncode\n```\noutro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CleanMarkdown(tt.in))
		})
	}
}

// TestCleanMarkdown_Idempotent applies the cleanup twice; the second pass
// must be a no-op for every representative input.
func TestCleanMarkdown_Idempotent(t *testing.T) {
	inputs := []string{
		"# Brief\n\nBody text.",
		`line one\nline two\n\"quoted\"`,
		"```markdown\n# Brief\nBody\n```",
		"```\n```html\n<html></html>\n```\n```",
		"intro\n```go\ncode\n```\noutro",
		// Escaped backslashes ahead of escaped quotes must not peel one
		// layer per pass.
		`a\\\"b`,
		`He said \\\"hi`,
		`C:\\Users\\me\\n`,
		`\\\\\"deep\"`,
	}

	for _, in := range inputs {
		once := CleanMarkdown(in)
		require.Equal(t, once, CleanMarkdown(once))
	}
}
