// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles defines the clarity color palette and the Theme type that
// carries every lipgloss style used by the TUI. Colors are adaptive; the
// theme honors an explicit dark/light setting and falls back to terminal
// background detection.
package styles
