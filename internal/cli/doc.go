// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the command-line surface of clarity: argument
// parsing, the headless chat REPL, and the sessions/config/status commands.
//
// The TUI itself lives in internal/ui/app; this package covers everything
// reachable without the full-screen interface, so clarity stays usable over
// plain ssh sessions and in scripts.
package cli
