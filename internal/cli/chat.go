// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Headless chat REPL for the clarity CLI.
//
// Handles the "clarity chat" command: a line-oriented conversation with the
// backend for terminals where the full-screen TUI is unwanted (ssh, tmux
// panes, screen readers, piped transcripts).
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /new                Start a new project session
//   /sessions           List known sessions
//   /load <id>          Switch to another session
//   /brief              Print the current project brief
//   /sitemap            Print the planned site structure
//   /prd                Print the technical spec
//   /status, /s         Show session status
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel the in-flight response
//   Ctrl+D              Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/plinng/clarity-tui/internal/config"
	"github.com/plinng/clarity-tui/internal/orchestrator"
	"github.com/plinng/clarity-tui/internal/state"
	"github.com/plinng/clarity-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Teal).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Indigo).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// historyFileName is the input history file under the config directory.
const historyFileName = "chat_history"

// ChatInput provides input history and line editing for the REPL.
type ChatInput struct {
	line        *liner.State
	historyFile string
}

// NewChatInput creates a ChatInput with persisted history.
func NewChatInput() *ChatInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	in := &ChatInput{
		line:        line,
		historyFile: filepath.Join(configDir, historyFileName),
	}
	in.loadHistory()
	return in
}

func (in *ChatInput) loadHistory() {
	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with history navigation.
func (in *ChatInput) ReadInput(prompt string) (string, error) {
	input, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		in.line.AppendHistory(input)
	}
	return input, nil
}

func (in *ChatInput) saveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	in.line.WriteHistory(f)
}

// Close saves history and releases the terminal.
func (in *ChatInput) Close() {
	in.saveHistory()
	in.line.Close()
}

// =============================================================================
// STREAM CANCELLATION
// =============================================================================

// streamCancel hands the in-flight stream's cancel function between the REPL
// loop and the signal handler goroutine.
type streamCancel struct {
	mu sync.Mutex
	fn context.CancelFunc
}

// set stores fn as the current cancel target. Pass nil once the stream ends.
func (s *streamCancel) set(fn context.CancelFunc) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
}

// fire invokes and clears the stored cancel function, reporting whether a
// stream was actually cancelled.
func (s *streamCancel) fire() bool {
	s.mu.Lock()
	fn := s.fn
	s.fn = nil
	s.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the headless chat REPL.
func HandleChat(args Args) error {
	orch, cfg := BuildOrchestrator(args)
	st := orch.Store()

	ctx := context.Background()
	if err := st.FetchInitialState(ctx); err != nil {
		return fmt.Errorf("backend unreachable at %s: %w", cfg.Backend.BaseURL, err)
	}

	if !args.Quiet {
		printWelcome(st.SessionID(), st.State(), cfg.Backend.BaseURL)
	}
	if notice := st.Notice(); notice != "" {
		fmt.Println(warningStyle.Render(notice))
		fmt.Println()
	}

	input := NewChatInput()
	defer input.Close()

	// First Ctrl+C cancels the in-flight response instead of exiting. The
	// holder is shared with the signal goroutine, so access is locked.
	var inFlight streamCancel
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigChan {
			if inFlight.fire() {
				fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		line, err := input.ReadInput(promptStyle.Render("clarity> "))
		if err != nil {
			// Ctrl+C at the prompt, or EOF. Exit cleanly either way.
			fmt.Println()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			keepGoing, err := handleSlashCommand(line, orch)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				return nil
			}
			continue
		}

		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}

		streamCtx, cancel := context.WithCancel(ctx)
		inFlight.set(cancel)
		err = sendAndPrint(streamCtx, orch, line)
		inFlight.set(nil)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// sendAndPrint runs one chat turn and prints the assistant's reply.
func sendAndPrint(ctx context.Context, orch *orchestrator.Orchestrator, message string) error {
	st := orch.Store()
	st.ClearError()

	if err := orch.SendMessage(ctx, message); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	if msg := st.Err(); msg != "" {
		return errors.New(msg)
	}
	if notice := st.Notice(); notice != "" {
		fmt.Println(warningStyle.Render(notice))
	}

	fmt.Println()
	if last := st.State().LastMessage(); last != nil && last.Role == state.RoleAssistant {
		displayResponse(last.Content)
	}
	fmt.Println()

	if gate := st.PendingGate(); gate != "" {
		fmt.Println(warningStyle.Render("[Checkpoint] " + gateQuestion(gate)))
		fmt.Println(infoStyle.Render("Reply to approve or keep refining."))
		fmt.Println()
		st.ClearPendingGate()
	}

	return nil
}

// gateQuestion maps a gate name to a human question.
func gateQuestion(gate string) string {
	switch gate {
	case "INTAKE_&_AUDIT":
		return "Ready to lock in the project direction?"
	case "BLUEPRINT":
		return "Does the site structure look right?"
	case "MARKETING":
		return "Happy with the marketing content?"
	}
	return "Ready to continue to the next step?"
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (keepGoing, error) where keepGoing=false means exit.
func handleSlashCommand(cmd string, orch *orchestrator.Orchestrator) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	st := orch.Store()
	ctx := context.Background()

	switch strings.ToLower(parts[0]) {
	case "/help", "/h", "/?", "/":
		printChatHelp()
		return true, nil

	case "/new":
		if err := st.StartNewProject(ctx); err != nil {
			return true, err
		}
		fmt.Println(commandStyle.Render("[New project started]"))
		return true, nil

	case "/sessions":
		printSessionList(st.ListSessions(ctx))
		return true, nil

	case "/load":
		if len(parts) < 2 {
			return true, fmt.Errorf("usage: /load <session-id>")
		}
		if err := st.LoadSession(ctx, parts[1]); err != nil {
			return true, err
		}
		s := st.State()
		fmt.Printf("%s %s (%s)\n",
			commandStyle.Render("[Loaded]"),
			projectLabel(s),
			s.CurrentStep)
		return true, nil

	case "/brief":
		printArtifact("Project brief", st.State().ProjectBrief)
		return true, nil

	case "/sitemap":
		printSitemap(st.State())
		return true, nil

	case "/prd":
		printArtifact("Technical spec", st.State().PRDDocument)
		return true, nil

	case "/status", "/s":
		printChatStatus(st.SessionID(), st.State())
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", parts[0])
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

func projectLabel(s *state.WebsiteState) string {
	if s.ProjectName != "" {
		return s.ProjectName
	}
	return "Untitled project"
}

func printWelcome(sessionID string, s *state.WebsiteState, backendURL string) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("clarity chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n", infoStyle.Render("Project:"), commandStyle.Render(projectLabel(s)))
	fmt.Printf("%s %s\n", infoStyle.Render("Step:"), commandStyle.Render(s.CurrentStep))
	fmt.Printf("%s %s\n", infoStyle.Render("Backend:"), commandStyle.Render(backendURL))
	fmt.Println()
	fmt.Println(infoStyle.Render("Describe the website you want. Commands: /help, /quit"))
	fmt.Println()
}

func printChatHelp() {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/new", "Start a new project"},
		{"/sessions", "List known sessions"},
		{"/load <id>", "Switch to another session"},
		{"/brief", "Print the project brief"},
		{"/sitemap", "Print the site structure"},
		{"/prd", "Print the technical spec"},
		{"/status, /s", "Show session status"},
		{"/quit, /q", "Exit chat"},
	}
	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-14s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+C cancels the current response, Ctrl+D exits"))
	fmt.Println()
}

func printChatStatus(sessionID string, s *state.WebsiteState) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("Session Status"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Printf("  %s %s\n", infoStyle.Render("Session:"), commandStyle.Render(sessionID))
	fmt.Printf("  %s %s\n", infoStyle.Render("Project:"), commandStyle.Render(projectLabel(s)))
	fmt.Printf("  %s %s\n", infoStyle.Render("Step:"), commandStyle.Render(s.CurrentStep))
	fmt.Printf("  %s %d\n", infoStyle.Render("Messages:"), len(s.ChatHistory))

	artifacts := make([]string, 0, 4)
	if s.ProjectBrief != "" {
		artifacts = append(artifacts, "brief")
	}
	if s.HasSitemap() {
		artifacts = append(artifacts, "sitemap")
	}
	if s.PRDDocument != "" {
		artifacts = append(artifacts, "prd")
	}
	if s.GeneratedCode != "" {
		artifacts = append(artifacts, "preview")
	}
	if len(artifacts) == 0 {
		artifacts = append(artifacts, "none yet")
	}
	fmt.Printf("  %s %s\n", infoStyle.Render("Artifacts:"), commandStyle.Render(strings.Join(artifacts, ", ")))
	fmt.Println()
}

func printArtifact(title, content string) {
	if content == "" {
		fmt.Println(infoStyle.Render("Nothing here yet."))
		return
	}
	fmt.Println()
	fmt.Println(welcomeStyle.Render(title))
	fmt.Println()
	displayResponse(content)
	fmt.Println()
}

func printSitemap(s *state.WebsiteState) {
	if !s.HasSitemap() {
		fmt.Println(infoStyle.Render("No sitemap yet."))
		return
	}
	fmt.Println()
	fmt.Println(welcomeStyle.Render("Site structure"))
	fmt.Println()
	for _, page := range s.Sitemap {
		fmt.Println(commandStyle.Render("  " + page.Title))
		if page.Purpose != "" {
			fmt.Println(infoStyle.Render("    " + page.Purpose))
		}
		for _, section := range page.Sections {
			fmt.Println(infoStyle.Render("    - " + section))
		}
	}
	fmt.Println()
}
