// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the bubbletea program for the clarity TUI. The model keeps
// a snapshot copy of the store's state and re-reads it on every message, so
// streaming effects applied by the orchestrator become visible on spinner
// ticks without any direct coupling between the store and the render loop.
package app
