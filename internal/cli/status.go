// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Backend and session status for the clarity CLI.
//
// Command: status
//   clarity status     Show backend reachability and the active session

package cli

import (
	"context"
	"fmt"
	"strings"
)

// HandleStatus handles the "status" command.
func HandleStatus(args Args) error {
	orch, cfg := BuildOrchestrator(args)
	st := orch.Store()
	ctx := context.Background()

	fmt.Println()
	fmt.Println(welcomeStyle.Render("clarity status"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Printf("  %s %s\n", infoStyle.Render("Backend:"), commandStyle.Render(cfg.Backend.BaseURL))

	err := st.FetchInitialState(ctx)
	if err != nil {
		fmt.Printf("  %s %s\n",
			infoStyle.Render("Reachable:"),
			errorStyle.Render("no"))
		fmt.Println()
		return err
	}

	fmt.Printf("  %s %s\n", infoStyle.Render("Reachable:"), commandStyle.Render("yes"))

	s := st.State()
	fmt.Printf("  %s %s\n", infoStyle.Render("Session:"), commandStyle.Render(st.SessionID()))
	fmt.Printf("  %s %s\n", infoStyle.Render("Project:"), commandStyle.Render(projectLabel(s)))
	fmt.Printf("  %s %s\n", infoStyle.Render("Step:"), commandStyle.Render(s.CurrentStep))
	fmt.Printf("  %s %d\n", infoStyle.Render("Messages:"), len(s.ChatHistory))
	if notice := st.Notice(); notice != "" {
		fmt.Printf("  %s %s\n", infoStyle.Render("Notice:"), warningStyle.Render(notice))
	}
	fmt.Println()

	return nil
}
