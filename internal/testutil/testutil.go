// Package testutil provides shared helpers for RunDown tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rundown-app/rundown/internal/backend"
	"github.com/rundown-app/rundown/internal/store"
	"github.com/rundown-app/rundown/internal/stubserver"
)

// NewStubBackend starts a stub backend over httptest and returns it with a
// client wired to it. The server is shut down with the test.
func NewStubBackend(t *testing.T) (*httptest.Server, *backend.Client) {
	t.Helper()
	srv := httptest.NewServer(stubserver.New(stubserver.Config{JWTSecret: []byte("test-secret")}).Router())
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("failed to create backend client: %v", err)
	}
	return srv, client
}

// Login establishes a session on the stub backend through the client's
// cookie jar.
func Login(t *testing.T, srv *httptest.Server, client *backend.Client) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/login", nil)
	if err != nil {
		t.Fatalf("failed to build login request: %v", err)
	}
	resp, err := client.HTTPClient().Do(req)
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned status %d", resp.StatusCode)
	}
}

// NewTestStore creates an in-memory store that closes with the test.
func NewTestStore(t *testing.T) store.Store {
	t.Helper()
	st := store.NewInMemoryStore()
	t.Cleanup(func() { st.Close() })
	return st
}

// AssertHTTPStatus fails the test when the status code does not match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// CreateHTTPRequest builds a request with an optional JSON body.
func CreateHTTPRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	}
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// DecodeJSONBody decodes a response body into out.
func DecodeJSONBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
}
