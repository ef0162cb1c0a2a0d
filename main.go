// clarity - A conversational website builder, from the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/plinng/clarity-tui/internal/cli"
	"github.com/plinng/clarity-tui/internal/config"
	"github.com/plinng/clarity-tui/internal/ui/app"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	// Request/response logging goes to ~/.clarity/clarity.log; stderr would
	// paint over the alt screen.
	if logFile := config.SetupLogging(); logFile != nil {
		defer logFile.Close()
	}

	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdChat:
		exitOnError(cli.HandleChat(args))
	case cli.CmdSessions:
		exitOnError(cli.HandleSessions(args))
	case cli.CmdConfig:
		exitOnError(cli.HandleConfig(args))
	case cli.CmdStatus:
		exitOnError(cli.HandleStatus(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	case cli.CmdUnknown:
		cli.PrintUsage()
		os.Exit(1)
	}
}

// runTUI starts the full-screen interface. A config watcher keeps the
// running program in sync with edits to ~/.clarity/config.toml.
func runTUI(args cli.Args) {
	orch, cfg := cli.BuildOrchestrator(args)

	if watcher, err := config.NewWatcher(nil); err == nil {
		if err := watcher.Watch(); err == nil {
			defer watcher.Close()
		}
	}

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.MouseEnabled {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	program := tea.NewProgram(app.New(orch, cfg), opts...)
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
