// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator composes the state store and the streaming driver
// into the single interface the UI tree consumes.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/plinng/clarity-tui/internal/backend"
	"github.com/plinng/clarity-tui/internal/driver"
	"github.com/plinng/clarity-tui/internal/state"
	"github.com/plinng/clarity-tui/internal/store"
)

// msgSendFailed is the user-facing message for a failed chat send.
const msgSendFailed = "Failed to send message, please try again."

// Orchestrator wires user input to the streaming driver and the store.
type Orchestrator struct {
	store    *store.Store
	streamer driver.Streamer

	mu      sync.Mutex
	loading bool
}

// New creates an orchestrator over a store and a chat transport.
func New(st *store.Store, streamer driver.Streamer) *Orchestrator {
	return &Orchestrator{store: st, streamer: streamer}
}

// Store exposes the underlying store for read access and imperative
// session operations.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// Loading reports whether a chat stream is currently in flight. The UI must
// disable message submission while true; only one outbound stream per
// session at a time.
func (o *Orchestrator) Loading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading
}

// beginSend flips the loading flag, refusing overlap.
func (o *Orchestrator) beginSend() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.loading {
		return false
	}
	o.loading = true
	return true
}

func (o *Orchestrator) endSend() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loading = false
}

// SendMessage runs one chat streaming cycle for the active session.
//
// The session identifier is captured at stream start; every effect checks it
// against the active identifier at apply time and stale results are
// discarded, so a session switch mid-stream can never bleed one session's
// state into another's view.
//
// A session-invalid error re-establishes the session (new id, default
// state) instead of surfacing as a failure. Other errors surface a generic
// retry message; the driver has already rolled back the optimistic
// placeholder by then.
func (o *Orchestrator) SendMessage(ctx context.Context, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	if !o.beginSend() {
		return nil
	}
	defer o.endSend()

	streamSID := o.store.SessionID()

	// current reports whether the stream's session is still the active one.
	current := func() bool {
		return o.store.SessionID() == streamSID
	}

	d := driver.New(o.streamer, driver.Effects{
		ApplyState: func(s *state.WebsiteState) {
			if current() {
				o.store.ApplySnapshot(s)
			}
		},
		UpdateChat: func(transform func([]state.ChatMessage) []state.ChatMessage) {
			if current() {
				o.store.UpdateChatHistory(transform)
			}
		},
		OnGate: func(gate string) {
			if current() {
				o.store.SetPendingGate(gate)
			}
		},
	})

	err := d.Send(ctx, streamSID, message)
	if err == nil {
		return nil
	}

	if errors.Is(err, backend.ErrSessionInvalid) {
		// The backend forgot this session; re-establish rather than fail.
		return o.store.FetchInitialState(ctx)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if current() {
		o.store.SetError(msgSendFailed)
	}
	return err
}
