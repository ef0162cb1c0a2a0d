// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package protocol implements the marker codec for the backend's streamed
// chat responses.
//
// A /chat response is plain assistant text interleaved with machine-readable
// fragments: phase-start markers announcing that an artifact (sitemap or
// technical spec) is being generated, gate-action markers requesting user
// approval, and a single state-update sentinel followed by a complete JSON
// WebsiteState snapshot that terminates the meaningful part of the turn.
//
// All functions here are pure and operate on the full buffer accumulated so
// far, never on an individual chunk, so a marker split across network chunk
// boundaries is still found once the whole marker has arrived.
package protocol

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/plinng/clarity-tui/internal/state"
)

// =============================================================================
// WIRE MARKERS
// =============================================================================

// StateUpdateMarker delimits the embedded JSON state snapshot within a
// streamed chat response. Everything after the first occurrence is state,
// not chat.
const StateUpdateMarker = "|||STATE_UPDATE|||"

// ArtifactKind identifies a long-running artifact generation phase.
type ArtifactKind string

// Artifact kinds announced by phase-start markers.
const (
	ArtifactSitemap ArtifactKind = "sitemap"
	ArtifactPRD     ArtifactKind = "prd"
)

// Phase-start fragments emitted by the backend when an artifact skill begins.
// Detection keys on the bold skill-name fragment; the emoji prefix varies in
// byte length (variation selectors) and is not part of the match.
const (
	sitemapStartMarker = "**Sitemap Architect**"
	prdStartMarker     = "**Technical Strategist**"

	// Older linear-flow agents announce the same phases without bold.
	sitemapStartAlt = "Architecting your sitemap structure"
	prdStartAlt     = "Writing technical specifications"
)

// Placeholder chat content shown while an artifact phase is suppressing
// tokens. The artifact itself arrives later inside the state snapshot.
const (
	SitemapPlaceholder = "[GENERATING_SITEMAP]"
	PRDPlaceholder     = "[GENERATING_PRD]"
)

// gateActionRE matches gate approval markers such as
// "[GATE_ACTION: BLUEPRINT]".
var gateActionRE = regexp.MustCompile(`\[GATE_ACTION:\s*([^\]]+)\]`)

// =============================================================================
// STATE UPDATE PARSING
// =============================================================================

// ParseStateUpdate scans the accumulated buffer for the state-update
// sentinel and, when present, attempts a strict JSON decode of everything
// after its first occurrence. The snapshot is merged over defaults so
// fields the backend omitted keep documented default values.
//
// Returns (nil, false) when the sentinel is absent or the JSON suffix is
// still incomplete. A failed parse is expected mid-stream and is never an
// error; the caller retries on the next chunk. The caller is responsible for
// acting on the first success only (the driver resets its buffer after
// applying a snapshot).
func ParseStateUpdate(buffer string) (*state.WebsiteState, bool) {
	idx := strings.Index(buffer, StateUpdateMarker)
	if idx < 0 {
		return nil, false
	}

	payload := strings.TrimSpace(buffer[idx+len(StateUpdateMarker):])
	if payload == "" {
		return nil, false
	}

	// Strict parse: truncated JSON means the snapshot is still arriving.
	if !json.Valid([]byte(payload)) {
		return nil, false
	}
	s, err := state.MergeOverDefaults([]byte(payload))
	if err != nil {
		return nil, false
	}
	return s, true
}

// Prefix returns the human-facing text that precedes the state-update
// sentinel, or the whole buffer when no sentinel is present.
func Prefix(buffer string) string {
	if idx := strings.Index(buffer, StateUpdateMarker); idx >= 0 {
		return buffer[:idx]
	}
	return buffer
}

// =============================================================================
// ARTIFACT MARKERS
// =============================================================================

// ArtifactMarker reports the detection result for one artifact kind.
type ArtifactMarker struct {
	Kind     ArtifactKind
	Detected bool
}

// DetectArtifactMarkers scans the buffer for phase-start markers of every
// artifact kind. Detection is a plain substring test over the full buffer.
// Once a marker has fired for a stream it must not fire again; the driver
// tracks that with its artifact mode, not here.
func DetectArtifactMarkers(buffer string) []ArtifactMarker {
	return []ArtifactMarker{
		{Kind: ArtifactSitemap, Detected: containsAny(buffer, sitemapStartMarker, sitemapStartAlt)},
		{Kind: ArtifactPRD, Detected: containsAny(buffer, prdStartMarker, prdStartAlt)},
	}
}

// FirstArtifact returns the first detected artifact kind in marker priority
// order, if any.
func FirstArtifact(buffer string) (ArtifactKind, bool) {
	for _, m := range DetectArtifactMarkers(buffer) {
		if m.Detected {
			return m.Kind, true
		}
	}
	return "", false
}

// Placeholder returns the transient chat content for an artifact phase.
func Placeholder(kind ArtifactKind) string {
	if kind == ArtifactPRD {
		return PRDPlaceholder
	}
	return SitemapPlaceholder
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// =============================================================================
// GATE ACTIONS
// =============================================================================

// ExtractGateActions returns the gate names requested in the buffer, in
// order of appearance.
func ExtractGateActions(buffer string) []string {
	var gates []string
	for _, m := range gateActionRE.FindAllStringSubmatch(buffer, -1) {
		gates = append(gates, strings.TrimSpace(m[1]))
	}
	return gates
}

// stripGateActions removes gate-action markers from display text.
func stripGateActions(s string) string {
	return gateActionRE.ReplaceAllString(s, "")
}

// =============================================================================
// ASSISTANT CONFIRMATION TEXT
// =============================================================================

// Fixed confirmation strings shown in place of a raw state dump once a
// snapshot lands.
const (
	SitemapReadyMessage = "Sitemap finalized! Take a look."
	PRDReadyMessage     = "Technical spec drafted! Review it in the PRD tab."
	BuildingMessage     = "Building your website preview now..."
	GenericDoneMessage  = "Processing complete."
)

// AssistantMessage derives the short human-facing confirmation shown as the
// trailing chat message after a state snapshot has been applied. The user
// must never see raw JSON or internal phase markers.
//
// Priority: sitemap ready, then spec ready, then building, then the cleaned
// stream prefix, then a generic completion notice.
func AssistantMessage(currentStep string, s *state.WebsiteState, rawPrefix string) string {
	switch {
	case currentStep == state.StepPlanning || (s != nil && s.HasSitemap()):
		return SitemapReadyMessage
	case currentStep == state.StepPRD || (s != nil && s.PRDDocument != ""):
		return PRDReadyMessage
	case currentStep == state.StepBuilding || (s != nil && s.GeneratedCode != ""):
		return BuildingMessage
	}

	cleaned := stripPhaseMarkers(rawPrefix)
	if cleaned == "" {
		return GenericDoneMessage
	}
	return cleaned
}

// stripPhaseMarkers removes known phase-start fragments and gate markers
// from display text and collapses the blank runs they leave behind.
func stripPhaseMarkers(s string) string {
	for _, marker := range []string{
		sitemapStartMarker, prdStartMarker,
		sitemapStartAlt, prdStartAlt,
		SitemapPlaceholder, PRDPlaceholder,
	} {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = stripGateActions(s)
	return collapseBlankLines(s)
}

// collapseBlankLines trims the text and squeezes runs of blank lines down to
// a single separator.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// =============================================================================
// MARKDOWN CLEANUP
// =============================================================================

// CleanMarkdown normalizes a markdown or HTML artifact that may have passed
// through one JSON-escaping round too many: literal "\n" and "\"" sequences
// become real newlines and quotes, and a code fence wrapping the entire
// document is removed. Idempotent: applying it twice equals applying once.
func CleanMarkdown(text string) string {
	if text == "" {
		return ""
	}

	out := strings.TrimSpace(resolveEscapes(text))

	// Strip fences that wrap the whole document, for example
	// ```markdown ... ``` around a full brief. Runs until stable so the
	// result of one pass never changes under a second.
	for strings.HasPrefix(out, "```") {
		nl := strings.Index(out, "\n")
		if nl < 0 {
			break
		}
		body := strings.TrimSpace(out[nl+1:])
		if !strings.HasSuffix(body, "```") {
			break
		}
		out = strings.TrimSpace(strings.TrimSuffix(body, "```"))
	}

	return out
}

// resolveEscapes converts literal "\n" and "\"" sequences in one
// left-to-right scan. Escape pairs are consumed as units, and "\\" is kept
// as written rather than collapsed: unescaping it would re-expose the
// following character as a fresh escape, so a second pass would keep
// stripping layers. Keeping the pair intact makes the scan a fixed point of
// itself.
func resolveEscapes(text string) string {
	if !strings.ContainsRune(text, '\\') {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\\' && i+1 < len(text) {
			switch text[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case '"':
				b.WriteByte('"')
				i++
				continue
			case '\\':
				b.WriteString(`\\`)
				i++
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
