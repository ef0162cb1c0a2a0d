// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// STREAM CANCELLATION TESTS
// =============================================================================

// TestStreamCancel_FireInvokesAndClears stores a cancel function, fires it,
// and asserts the second fire is a no-op.
func TestStreamCancel_FireInvokesAndClears(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var sc streamCancel
	sc.set(cancel)

	require.True(t, sc.fire())
	require.ErrorIs(t, ctx.Err(), context.Canceled)
	require.False(t, sc.fire(), "fire should clear the stored function")
}

// TestStreamCancel_NilIsNoop covers the idle REPL: no stream in flight, a
// stray interrupt must not cancel anything.
func TestStreamCancel_NilIsNoop(t *testing.T) {
	var sc streamCancel
	require.False(t, sc.fire())

	ctx, cancel := context.WithCancel(context.Background())
	sc.set(cancel)
	sc.set(nil)
	require.False(t, sc.fire())
	require.NoError(t, ctx.Err())
	cancel()
}

// TestStreamCancel_ConcurrentFire hammers set and fire from separate
// goroutines the way the REPL loop and signal handler interleave. Every
// stored context must end up cancelled exactly once in total across the
// set/fire pairs, with no torn reads under the race detector.
func TestStreamCancel_ConcurrentFire(t *testing.T) {
	var sc streamCancel
	var wg sync.WaitGroup

	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				sc.fire()
			}
		}
	}()

	var ctxs []context.Context
	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		ctxs = append(ctxs, ctx)
		sc.set(cancel)
		sc.set(nil)
		cancel()
	}
	close(stop)
	wg.Wait()

	for _, ctx := range ctxs {
		require.ErrorIs(t, ctx.Err(), context.Canceled)
	}
}
