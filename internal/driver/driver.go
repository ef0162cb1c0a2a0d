// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package driver executes one chat streaming cycle per user message and
// translates the incoming byte stream into state effects.
//
// The backend answers a /chat request with a single text stream mixing plain
// assistant tokens, artifact phase markers and one embedded state snapshot.
// The driver runs a small state machine over the cumulative buffer and emits
// exactly three kinds of effects: a wholesale state replacement, mutations
// of the trailing chat message, and an error. It never touches any other
// state field; the store's narrow chat channel is the only write path it
// uses.
package driver

import (
	"context"
	"strings"

	"github.com/plinng/clarity-tui/internal/backend"
	"github.com/plinng/clarity-tui/internal/protocol"
	"github.com/plinng/clarity-tui/internal/state"
)

// =============================================================================
// STREAM MODES
// =============================================================================

// mode is the driver's position in the per-message protocol. Modeled as an
// explicit machine so a second artifact marker cannot re-fire and a parsed
// snapshot cannot be reprocessed as plain tokens.
type mode int

const (
	// modeNormal: tokens go straight to the trailing chat message.
	modeNormal mode = iota
	// modeArtifact: tokens are suppressed; a placeholder occupies the
	// trailing chat slot until the artifact lands inside the snapshot.
	modeArtifact
)

// =============================================================================
// EFFECTS
// =============================================================================

// Effects are the driver's only outputs. All callbacks are invoked from the
// goroutine running Send; the store serializes them.
type Effects struct {
	// ApplyState replaces the canonical state with a parsed snapshot.
	ApplyState func(*state.WebsiteState)

	// UpdateChat applies a pure transform to the chat history. This is the
	// narrow channel that mutates the trailing message without racing other
	// state fields.
	UpdateChat func(func([]state.ChatMessage) []state.ChatMessage)

	// OnGate reports a gate-approval request found in the stream. Optional.
	OnGate func(gate string)

	// OnRaw observes every raw chunk. Optional, for diagnostics surfaces.
	OnRaw func(chunk string)
}

// Streamer is the transport dependency: one streaming request per message.
// *backend.Client satisfies it.
type Streamer interface {
	ChatStream(ctx context.Context, sessionID, message string, callback backend.ChunkCallback) error
}

// =============================================================================
// DRIVER
// =============================================================================

// Driver runs chat streams against a backend.
type Driver struct {
	streamer Streamer
	effects  Effects
}

// New creates a driver with the given transport and effect sinks.
func New(streamer Streamer, effects Effects) *Driver {
	return &Driver{streamer: streamer, effects: effects}
}

// session holds the per-message machine state. A fresh one is built for
// every Send call; nothing carries over between messages.
type session struct {
	effects Effects

	mode     mode
	artifact protocol.ArtifactKind
	buffer   strings.Builder

	// applied is set once a snapshot has landed for this stream. It keeps a
	// late transport error from rolling back a confirmed message.
	applied bool

	gatesSeen map[string]bool
}

// Send executes one full request/response streaming cycle: it appends the
// optimistic user message and empty assistant placeholder, consumes the
// stream, and leaves the final chat content in place. On failure before any
// snapshot applied, the optimistic assistant placeholder (exactly one
// trailing entry) is rolled back and the error returned; session-invalid
// errors pass through unwrapped so the caller can re-establish the session.
func (d *Driver) Send(ctx context.Context, sessionID, message string) error {
	s := &session{
		effects:   d.effects,
		gatesSeen: map[string]bool{},
	}

	// Optimistic append: the input affordance can clear immediately and the
	// UI shows a pending slot.
	d.effects.UpdateChat(func(h []state.ChatMessage) []state.ChatMessage {
		h = append(h, state.ChatMessage{Role: state.RoleUser, Content: message})
		h = append(h, state.ChatMessage{Role: state.RoleAssistant, Content: ""})
		return h
	})

	err := d.streamer.ChatStream(ctx, sessionID, message, s.handleChunk)
	if err != nil && !s.applied {
		// Roll back the pending assistant slot so the history never shows a
		// permanently blank bubble.
		d.effects.UpdateChat(func(h []state.ChatMessage) []state.ChatMessage {
			if n := len(h); n > 0 && h[n-1].Role == state.RoleAssistant {
				return h[:n-1]
			}
			return h
		})
	}
	return err
}

// =============================================================================
// CHUNK HANDLING
// =============================================================================

// handleChunk appends one decoded chunk and advances the machine. Checks run
// in fixed priority: snapshot parse, then artifact-marker detection, then
// artifact suppression, then plain token replacement. Detection always scans
// the whole buffer so markers straddling chunk boundaries are still found.
func (s *session) handleChunk(chunk string) {
	if s.effects.OnRaw != nil {
		s.effects.OnRaw(chunk)
	}

	s.buffer.WriteString(chunk)
	buf := s.buffer.String()

	// 1. A complete snapshot terminates the meaningful part of the turn.
	// The buffer resets afterward so later growth cannot replay the same
	// sentinel as a duplicate transition.
	if next, ok := protocol.ParseStateUpdate(buf); ok {
		s.applySnapshot(next, buf)
		return
	}

	// 2. First artifact marker switches to suppression with a placeholder.
	if s.mode == modeNormal {
		if kind, ok := protocol.FirstArtifact(buf); ok {
			s.mode = modeArtifact
			s.artifact = kind
			s.setTrailing(protocol.Placeholder(kind))
			return
		}
	}

	// 3. In artifact mode incremental tokens are noise; the artifact itself
	// arrives bundled in the snapshot.
	if s.mode == modeArtifact {
		return
	}

	// 4. Plain token: the trailing message becomes the full buffer (the
	// buffer already holds everything received for this message).
	s.setTrailing(buf)
}

// applySnapshot delivers a parsed state and the derived confirmation text,
// then resets to normal mode for any remaining stream content.
func (s *session) applySnapshot(next *state.WebsiteState, buf string) {
	confirmation := protocol.AssistantMessage(next.CurrentStep, next, protocol.Prefix(buf))

	s.effects.ApplyState(next)
	s.setTrailing(confirmation)
	s.fireGates(buf)

	s.applied = true
	s.mode = modeNormal
	s.artifact = ""
	s.buffer.Reset()
}

// setTrailing overwrites the trailing assistant message's content.
func (s *session) setTrailing(content string) {
	s.effects.UpdateChat(func(h []state.ChatMessage) []state.ChatMessage {
		if n := len(h); n > 0 && h[n-1].Role == state.RoleAssistant {
			h[n-1].Content = content
		}
		return h
	})
}

// fireGates reports each gate-approval marker once per stream.
func (s *session) fireGates(buf string) {
	if s.effects.OnGate == nil {
		return
	}
	for _, gate := range protocol.ExtractGateActions(buf) {
		if !s.gatesSeen[gate] {
			s.gatesSeen[gate] = true
			s.effects.OnGate(gate)
		}
	}
}
