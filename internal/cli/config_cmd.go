// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration commands for the clarity CLI.
//
// Command: config
//   clarity config              Show current settings (default)
//   clarity config show         Show current settings
//   clarity config path         Print the config file location
//   clarity config set KEY VAL  Update a setting and save

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/plinng/clarity-tui/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	sub := "show"
	if len(args.Raw) > 0 {
		sub = strings.ToLower(args.Raw[0])
	}

	switch sub {
	case "show":
		cfg, err := config.Load()
		if err != nil {
			fmt.Println(warningStyle.Render("Using defaults (config file unreadable)."))
		}
		printConfig(cfg)
		return nil

	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return fmt.Errorf("cannot resolve config path: %w", err)
		}
		fmt.Println(path)
		return nil

	case "set":
		if len(args.Raw) < 3 {
			return fmt.Errorf("usage: clarity config set <key> <value>")
		}
		return setConfigValue(args.Raw[1], args.Raw[2])

	default:
		return fmt.Errorf("unknown config subcommand: %s", sub)
	}
}

func printConfig(cfg *config.Config) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("Configuration"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Printf("  %s %s\n", infoStyle.Render("backend.url:"), commandStyle.Render(cfg.Backend.BaseURL))
	fmt.Printf("  %s %d\n", infoStyle.Render("backend.max_retries:"), cfg.Backend.MaxRetries)
	fmt.Printf("  %s %d\n", infoStyle.Render("backend.timeout_secs:"), cfg.Backend.RequestTimeoutSecs)
	fmt.Printf("  %s %s\n", infoStyle.Render("ui.theme:"), commandStyle.Render(cfg.UI.Theme))
	fmt.Printf("  %s %d\n", infoStyle.Render("ui.markdown_width:"), cfg.UI.MarkdownWidth)
	fmt.Printf("  %s %v\n", infoStyle.Render("ui.mouse_enabled:"), cfg.UI.MouseEnabled)
	fmt.Println()
}

// setConfigValue updates a single key and persists the file.
func setConfigValue(key, value string) error {
	cfg, _ := config.Load()

	switch strings.ToLower(key) {
	case "backend.url":
		cfg.Backend.BaseURL = value
	case "backend.max_retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_retries must be a number: %w", err)
		}
		cfg.Backend.MaxRetries = n
	case "backend.timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("timeout_secs must be a number: %w", err)
		}
		cfg.Backend.RequestTimeoutSecs = n
	case "ui.theme":
		cfg.UI.Theme = value
	case "ui.markdown_width":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("markdown_width must be a number: %w", err)
		}
		cfg.UI.MarkdownWidth = n
	case "ui.mouse_enabled":
		cfg.UI.MouseEnabled = value == "true"
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("%s %s = %s\n", commandStyle.Render("[OK]"), key, value)
	return nil
}
