// Package backend implements the HTTP client for the RunDown backend.
//
// It covers the six endpoints the page consumed: /api/session, /chat,
// /addtask, /calendar, /addsuggestion, and /calendar/delete. Every request
// carries the session cookie and the XHR-identifying header the backend
// expects. Authentication failures surface as AuthRequiredError so callers
// can short-circuit and redirect; no request is ever retried.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"

	"github.com/rundown-app/rundown/internal/models"
)

// requestedWithHeader marks requests as XHR, matching the browser client.
const requestedWithHeader = "XMLHttpRequest"

// maxErrorBodySize bounds how much of an error body is read for a message.
const maxErrorBodySize = 4 << 10

// Client talks to one RunDown backend instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the backend at baseURL. The client keeps a
// cookie jar so the backend session cookie travels with every request. It
// sets no request timeout; cancellation is the caller's context's job.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("backend base URL not set")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Jar: jar},
	}
	for _, opt := range opts {
		opt(c)
	}
	slog.Debug("Backend client created", "base_url", baseURL)
	return c, nil
}

// HTTPClient exposes the underlying HTTP client. Callers use it for
// requests that must share the session cookie jar, such as a dev login.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// CheckSession verifies the session with GET /api/session. A transport or
// parse failure is returned as an error; the session gate treats any error
// as unauthenticated.
func (c *Client) CheckSession(ctx context.Context) (models.SessionStatus, error) {
	var status models.SessionStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/session", nil, &status); err != nil {
		// The gate fails closed on auth errors too; map them onto the
		// unauthenticated shape so the caller sees the redirect.
		if redirect, ok := IsAuthRequired(err); ok {
			return models.SessionStatus{Authenticated: false, Redirect: redirect}, nil
		}
		return models.SessionStatus{}, err
	}
	return status, nil
}

// Chat sends a user message with POST /chat.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	var resp models.ChatResponse
	if err := req.Validate(); err != nil {
		return resp, err
	}
	if err := c.doJSON(ctx, http.MethodPost, "/chat", req, &resp); err != nil {
		return models.ChatResponse{}, err
	}
	return resp, nil
}

// AddTask creates a task (and usually a calendar event) with POST /addtask.
func (c *Client) AddTask(ctx context.Context, req models.AddTaskRequest) (models.AddTaskResponse, error) {
	var resp models.AddTaskResponse
	if err := req.Validate(); err != nil {
		return resp, err
	}
	if err := c.doJSON(ctx, http.MethodPost, "/addtask", req, &resp); err != nil {
		return models.AddTaskResponse{}, err
	}
	return resp, nil
}

// CalendarEvents fetches the user's calendar events with GET /calendar.
func (c *Client) CalendarEvents(ctx context.Context) ([]models.CalendarEvent, error) {
	var resp models.CalendarResponse
	if err := c.doJSON(ctx, http.MethodGet, "/calendar", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// Suggestions fetches email-derived task suggestions with POST
// /addsuggestion for the given time period ("1", "7", "15", or "30" days).
func (c *Client) Suggestions(ctx context.Context, timePeriod string) ([]models.Suggestion, error) {
	if !models.IsValidTimePeriod(timePeriod) {
		timePeriod = models.DefaultTimePeriod
	}
	var resp models.SuggestionsResponse
	req := models.SuggestionsRequest{TimePeriod: timePeriod}
	if err := c.doJSON(ctx, http.MethodPost, "/addsuggestion", req, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

// DeleteEvent removes a calendar event with POST /calendar/delete.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	req := models.DeleteEventRequest{EventID: eventID}
	if err := req.Validate(); err != nil {
		return err
	}
	var resp models.DeleteEventResponse
	return c.doJSON(ctx, http.MethodPost, "/calendar/delete", req, &resp)
}

// doJSON performs one JSON request/response round trip against the backend.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, out interface{}) error {
	var body io.Reader
	if reqBody != nil {
		payload, err := json.Marshal(reqBody)
		if err != nil {
			slog.Error("Backend client marshal failed", "error", err, "path", path)
			return fmt.Errorf("failed to marshal request for %s: %w", path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Requested-With", requestedWithHeader)

	slog.Debug("Backend request", "method", method, "path", path)
	res, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Backend request transport failure", "error", err, "path", path)
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		redirect := models.DefaultLoginRedirect
		var errBody models.ErrorResponse
		if decodeErr := json.NewDecoder(io.LimitReader(res.Body, maxErrorBodySize)).Decode(&errBody); decodeErr == nil && errBody.Redirect != "" {
			redirect = errBody.Redirect
		}
		slog.Warn("Backend requires authentication", "path", path, "status", res.StatusCode, "redirect", redirect)
		return &AuthRequiredError{Redirect: redirect}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		message := ""
		var errBody models.ErrorResponse
		if decodeErr := json.NewDecoder(io.LimitReader(res.Body, maxErrorBodySize)).Decode(&errBody); decodeErr == nil {
			message = errBody.Error
		}
		slog.Error("Backend request failed", "path", path, "status", res.StatusCode, "message", message)
		return &RequestError{StatusCode: res.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		slog.Error("Backend response decode failed", "error", err, "path", path)
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	slog.Debug("Backend request succeeded", "method", method, "path", path)
	return nil
}
