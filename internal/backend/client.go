// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend implements the HTTP client for the Clarity
// website-generation backend.
//
// The backend holds all project state server-side, keyed by a
// client-persisted session identifier carried in the X-Session-ID header.
// This package owns transport, retries and error classification; it never
// interprets stream content beyond bytes (see internal/driver for that).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/plinng/clarity-tui/internal/state"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL is where the FastAPI backend listens in development.
	DefaultBaseURL = "http://localhost:8000"

	// SessionHeader carries the client session identifier on every request.
	SessionHeader = "X-Session-ID"

	// DefaultTimeout bounds non-streaming requests.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the retry budget for transient errors.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay caps the backoff delay.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize bounds non-streaming response bodies.
	MaxResponseSize = 10 * 1024 * 1024
)

var (
	// Shared HTTP client with connection pooling for all request/response
	// calls.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient has no timeout; streaming lifetime is
	// controlled via context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

var (
	// ErrSessionInvalid indicates the backend no longer knows the session
	// identifier. The store recovers by regenerating the id and resetting to
	// defaults; this error must never surface raw to the user.
	ErrSessionInvalid = errors.New("session invalid")

	// ErrUnreachable indicates the backend could not be contacted at all.
	ErrUnreachable = errors.New("backend unreachable")
)

// APIError represents a non-2xx response from the backend.
type APIError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// IsSessionError reports whether a status/detail pair is the backend's
// session-invalid signal: 404 or 401 with a detail string mentioning the
// session or "not found".
func IsSessionError(status int, detail string) bool {
	if status != http.StatusNotFound && status != http.StatusUnauthorized {
		return false
	}
	lower := strings.ToLower(detail)
	return strings.Contains(lower, "session") || strings.Contains(lower, "not found")
}

// SessionInfo is one entry from GET /sessions. Timestamps stay as the
// backend's ISO strings; the picker only displays them.
type SessionInfo struct {
	SessionID   string `json:"session_id"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	ProjectName string `json:"project_name"`
	CurrentStep string `json:"current_step"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Clarity backend.
type Client struct {
	baseURL    string
	maxRetries int
	httpClient *http.Client
}

// NewClient creates a backend client. An empty baseURL falls back to the
// development default.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		maxRetries: DefaultMaxRetries,
		httpClient: sharedHTTPClient,
	}
}

// WithMaxRetries sets the retry budget for transient errors.
func (c *Client) WithMaxRetries(n int) *Client {
	if n > 0 {
		c.maxRetries = n
	}
	return c
}

// WithTimeout bounds non-streaming requests. The connection pool is shared;
// only the per-request deadline changes. Streaming requests stay
// context-bound and are unaffected.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.httpClient = &http.Client{
			Transport: sharedHTTPClient.Transport,
			Timeout:   d,
		}
	}
	return c
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// STATE & SESSION ENDPOINTS
// =============================================================================

// FetchState retrieves the current snapshot for a session, merged over
// defaults. A session the backend does not know yields ErrSessionInvalid.
func (c *Client) FetchState(ctx context.Context, sessionID string) (*state.WebsiteState, error) {
	body, err := c.doJSON(ctx, http.MethodGet, "/state", sessionID, nil)
	if err != nil {
		return nil, err
	}
	s, err := state.MergeOverDefaults(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	return s, nil
}

// NewSession asks the backend to create a fresh session and returns its
// identifier.
func (c *Client) NewSession(ctx context.Context) (string, error) {
	body, err := c.doJSON(ctx, http.MethodPost, "/session/new", "", nil)
	if err != nil {
		return "", err
	}
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse session response: %w", err)
	}
	if resp.SessionID == "" {
		return "", errors.New("backend returned empty session id")
	}
	return resp.SessionID, nil
}

// ListSessions enumerates sessions known to the backend.
func (c *Client) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	body, err := c.doJSON(ctx, http.MethodGet, "/sessions", "", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Sessions []SessionInfo `json:"sessions"`
		Count    int           `json:"count"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse sessions response: %w", err)
	}
	return resp.Sessions, nil
}

// DeleteSession removes a session server-side.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/session/"+sessionID, "", nil)
	return err
}

// =============================================================================
// PROJECT OPERATIONS (non-streaming)
// =============================================================================

// UpdateProject sends form facts (project name, industry) and returns the
// state after the intake audit ran.
func (c *Client) UpdateProject(ctx context.Context, sessionID string, data map[string]any) (*state.WebsiteState, error) {
	body, err := c.doJSON(ctx, http.MethodPost, "/update-project", sessionID, data)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Message string          `json:"message"`
		State   json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.State) == 0 {
		// Some endpoints return the state dump directly.
		return state.MergeOverDefaults(body)
	}
	return state.MergeOverDefaults(resp.State)
}

// FetchExternalData triggers the backend's CRM lookup for the project.
func (c *Client) FetchExternalData(ctx context.Context, sessionID string) (*state.WebsiteState, error) {
	return c.stateOp(ctx, "/fetch-external-data", sessionID)
}

// RunPlanner asks the backend to generate or revise the sitemap.
func (c *Client) RunPlanner(ctx context.Context, sessionID string) (*state.WebsiteState, error) {
	return c.stateOp(ctx, "/run-planner", sessionID)
}

// RunPRD asks the backend to draft the technical specification.
func (c *Client) RunPRD(ctx context.Context, sessionID string) (*state.WebsiteState, error) {
	return c.stateOp(ctx, "/run-prd", sessionID)
}

// stateOp POSTs to an endpoint that replies with a full state dump, or with
// {"error": "..."} when a precondition is unmet.
func (c *Client) stateOp(ctx context.Context, path, sessionID string) (*state.WebsiteState, error) {
	body, err := c.doJSON(ctx, http.MethodPost, path, sessionID, nil)
	if err != nil {
		return nil, err
	}
	var guard struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &guard); err == nil && guard.Error != "" {
		return nil, &APIError{Status: http.StatusOK, Detail: guard.Error}
	}
	return state.MergeOverDefaults(body)
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// doJSON performs a request with retries for transient failures and returns
// the raw response body. Errors are classified here: session signals become
// ErrSessionInvalid, connection failures become ErrUnreachable, everything
// else an *APIError.
func (c *Client) doJSON(ctx context.Context, method, path, sessionID string, payload any) ([]byte, error) {
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(calculateBackoff(attempt)):
			}
		}

		body, err := c.doOnce(ctx, method, path, sessionID, bodyBytes)
		if err == nil {
			return body, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doOnce performs a single request attempt.
func (c *Client) doOnce(ctx context.Context, method, path, sessionID string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, sessionID)

	log.Printf("API Request: %s %s", method, path)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, time.Since(start))

	respBody, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// setHeaders applies the standard headers to a request.
func (c *Client) setHeaders(req *http.Request, sessionID string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "clarity-tui/0.1.0")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
}

// readResponse reads a body with a size limit so a misbehaving backend
// cannot exhaust memory.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// classifyError converts an HTTP error response into the package's error
// taxonomy.
func classifyError(status int, body []byte) error {
	var detail struct {
		Detail string `json:"detail"`
	}
	_ = json.Unmarshal(body, &detail)
	if detail.Detail == "" {
		detail.Detail = strings.TrimSpace(string(body))
	}

	if IsSessionError(status, detail.Detail) {
		return fmt.Errorf("%w: %s", ErrSessionInvalid, detail.Detail)
	}
	return &APIError{Status: status, Detail: detail.Detail}
}

// isRetryable reports whether an error is worth another attempt. Session
// errors and other 4xx responses are final; connection failures and 5xx
// responses are transient.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrSessionInvalid) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return errors.Is(err, ErrUnreachable)
}

// calculateBackoff returns the exponential backoff delay for an attempt.
func calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
