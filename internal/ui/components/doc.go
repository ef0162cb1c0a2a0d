// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable UI pieces of the clarity TUI:
// message bubbles, the artifact tab bar, the code preview, the session
// picker, the gate prompt, the pipeline progress strip, the spinner and the
// status bar. Components render from values they are handed; none of them
// reach into the store directly.
package components
