// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing and routing for the clarity CLI.
//
// Commands:
//   clarity                 Launch the TUI (default)
//   clarity tui             Launch the TUI explicitly
//   clarity chat            Headless REPL against the backend
//   clarity sessions        List, switch, and delete sessions
//   clarity config          Show or edit configuration
//   clarity status          Show backend and session status
//   clarity version         Print version information

package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies a top-level CLI command.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdSessions
	CmdConfig
	CmdStatus
	CmdVersion
	CmdHelp
	CmdUnknown
)

// Args carries parsed global flags plus the remaining command arguments.
type Args struct {
	// BackendURL overrides the configured backend address.
	BackendURL string

	// Quiet suppresses informational output.
	Quiet bool

	// Raw holds the arguments after the command name.
	Raw []string
}

// =============================================================================
// PARSING
// =============================================================================

// Parse reads os.Args and returns the command to run plus its arguments.
func Parse() (Command, Args) {
	remaining, parsed := parseGlobalFlags(os.Args[1:])

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	parsed.Raw = remaining[1:]

	switch cmd {
	case "tui":
		return CmdTUI, parsed
	case "chat":
		return CmdChat, parsed
	case "session", "sessions":
		return CmdSessions, parsed
	case "config":
		return CmdConfig, parsed
	case "status", "s":
		return CmdStatus, parsed
	case "version", "-v", "--version":
		return CmdVersion, parsed
	case "help", "-h", "--help":
		return CmdHelp, parsed
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		return CmdUnknown, parsed
	}
}

// parseGlobalFlags extracts flags that apply to every command.
func parseGlobalFlags(args []string) ([]string, Args) {
	var parsed Args
	remaining := make([]string, 0, len(args))

	i := 0
	for i < len(args) {
		switch args[i] {
		case "--backend", "-b":
			if i+1 < len(args) {
				parsed.BackendURL = args[i+1]
				i += 2
				continue
			}
			i++
		case "-q", "--quiet":
			parsed.Quiet = true
			i++
		default:
			remaining = append(remaining, args[i])
			i++
		}
	}

	return remaining, parsed
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `clarity - conversational website builder, from the terminal

Usage:
  clarity [command] [flags]

Commands:
  (none), tui        Launch the interactive TUI
  chat               Headless chat REPL (pipeable)
  sessions           List or manage backend sessions
    sessions list            List known sessions
    sessions delete <id>     Delete a session
  config             Show or edit configuration
    config show              Print current settings
    config path              Print config file location
    config set <key> <val>   Update a setting
  status             Show backend reachability and active session
  version            Print version information

Global flags:
  -b, --backend URL  Backend address (overrides config)
  -q, --quiet        Minimal output

Examples:
  clarity                                Start the TUI
  clarity chat                           Chat without the full-screen UI
  clarity --backend http://host:8000     Point at a remote backend
  clarity sessions list                  See existing projects

Version: %s
`

// PrintUsage prints the usage text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("clarity version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}
