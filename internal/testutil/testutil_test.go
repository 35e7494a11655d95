package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/rundown-app/rundown/internal/models"
)

func TestStubBackendLoginFlow(t *testing.T) {
	srv, client := NewStubBackend(t)

	status, err := client.CheckSession(context.Background())
	if err != nil {
		t.Fatalf("session check failed: %v", err)
	}
	if status.Authenticated {
		t.Fatal("expected no session before login")
	}

	Login(t, srv, client)
	status, err = client.CheckSession(context.Background())
	if err != nil {
		t.Fatalf("session check failed: %v", err)
	}
	if !status.Authenticated {
		t.Error("expected a session after login")
	}
}

func TestCreateHTTPRequest(t *testing.T) {
	req := CreateHTTPRequest(t, http.MethodPost, "http://localhost/chat", models.ChatRequest{Message: "hi"})
	if req.Header.Get("Content-Type") != "application/json" {
		t.Error("expected a JSON content type for a JSON body")
	}
	req = CreateHTTPRequest(t, http.MethodGet, "http://localhost/calendar", nil)
	if req.Header.Get("Content-Type") != "" {
		t.Error("expected no content type without a body")
	}
}
