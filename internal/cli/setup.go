// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// setup.go - Shared wiring for CLI command handlers.

package cli

import (
	"time"

	"github.com/plinng/clarity-tui/internal/backend"
	"github.com/plinng/clarity-tui/internal/config"
	"github.com/plinng/clarity-tui/internal/orchestrator"
	"github.com/plinng/clarity-tui/internal/storage"
	"github.com/plinng/clarity-tui/internal/store"
)

// BuildOrchestrator wires the backend client, session repository, local
// session cache, store, and orchestrator from configuration plus CLI
// overrides. The cache is optional; a failure to open it degrades to no
// offline session list.
func BuildOrchestrator(args Args) (*orchestrator.Orchestrator, *config.Config) {
	cfg, _ := config.Load()
	if args.BackendURL != "" {
		cfg.Backend.BaseURL = args.BackendURL
	}

	client := backend.NewClient(cfg.Backend.BaseURL).
		WithMaxRetries(cfg.Backend.MaxRetries).
		WithTimeout(time.Duration(cfg.Backend.RequestTimeoutSecs) * time.Second)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = ""
	}

	var cache store.SessionCache
	if dir != "" {
		if c, err := storage.Open(dir); err == nil {
			cache = c
		}
	}

	repo := store.NewFileSessionRepository(dir)
	st := store.New(client, repo, cache)

	return orchestrator.New(st, client), cfg
}
