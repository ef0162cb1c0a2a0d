// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - Session management commands for the clarity CLI.
//
// Command: sessions
//   clarity sessions            List known sessions (default)
//   clarity sessions list       List known sessions
//   clarity sessions delete ID  Delete a session

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/plinng/clarity-tui/internal/backend"
)

// HandleSessions handles the "sessions" command.
func HandleSessions(args Args) error {
	orch, _ := BuildOrchestrator(args)
	st := orch.Store()
	ctx := context.Background()

	sub := "list"
	if len(args.Raw) > 0 {
		sub = strings.ToLower(args.Raw[0])
	}

	switch sub {
	case "list", "ls":
		sessions := st.ListSessions(ctx)
		if msg := st.Err(); msg != "" {
			fmt.Println(warningStyle.Render(msg))
			sessions = st.CachedSessions()
			if len(sessions) > 0 {
				fmt.Println(infoStyle.Render("Showing cached session list."))
			}
		}
		printSessionList(sessions)
		return nil

	case "delete", "rm":
		if len(args.Raw) < 2 {
			return fmt.Errorf("usage: clarity sessions delete <session-id>")
		}
		id := args.Raw[1]
		if err := st.DeleteSession(ctx, id); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		fmt.Printf("%s Deleted session %s\n", commandStyle.Render("[OK]"), id)
		return nil

	default:
		return fmt.Errorf("unknown sessions subcommand: %s", sub)
	}
}

// printSessionList renders sessions as an aligned table.
func printSessionList(sessions []backend.SessionInfo) {
	if len(sessions) == 0 {
		fmt.Println(infoStyle.Render("No sessions found."))
		return
	}

	fmt.Println()
	fmt.Printf("  %-38s %-24s %-14s %s\n",
		infoStyle.Render("SESSION"),
		infoStyle.Render("PROJECT"),
		infoStyle.Render("STEP"),
		infoStyle.Render("UPDATED"))
	for _, s := range sessions {
		name := s.ProjectName
		if name == "" {
			name = "Untitled project"
		}
		fmt.Printf("  %-38s %-24s %-14s %s\n",
			commandStyle.Render(s.SessionID),
			name,
			s.CurrentStep,
			s.UpdatedAt)
	}
	fmt.Println()
}
