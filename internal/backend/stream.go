// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// =============================================================================
// CHAT STREAMING
// =============================================================================

// streamBufSize is the read granularity for the chat stream. Chunk
// boundaries are arbitrary; the driver re-scans its cumulative buffer, so
// the size only affects latency.
const streamBufSize = 4 * 1024

// ChunkCallback receives each decoded text chunk as it arrives.
type ChunkCallback func(chunk string)

// StreamError wraps a failure that occurred mid-stream, preserving whatever
// content arrived before it.
type StreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// ChatStream sends one user message and consumes the streamed response,
// invoking the callback for every raw chunk. The backend interleaves chat
// text with protocol markers; this layer passes bytes through untouched.
//
// The response is plain chunked text (the backend sets an event-stream
// media type but does not frame events), so the reader forwards raw reads.
// Blocks until the stream completes, the context is cancelled, or an error
// occurs.
func (c *Client) ChatStream(ctx context.Context, sessionID, message string, callback ChunkCallback) error {
	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, sessionID)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := sharedStreamingClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return classifyError(resp.StatusCode, body)
	}

	return consumeStream(ctx, resp.Body, callback)
}

// consumeStream reads the body until EOF, forwarding each chunk.
func consumeStream(ctx context.Context, body io.Reader, callback ChunkCallback) error {
	var received bytes.Buffer
	buf := make([]byte, streamBufSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			received.WriteString(chunk)
			callback(chunk)
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return &StreamError{Partial: received.String(), Err: err}
		}
	}
}
