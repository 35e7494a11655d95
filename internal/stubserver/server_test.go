package stubserver_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rundown-app/rundown/internal/backend"
	"github.com/rundown-app/rundown/internal/models"
	"github.com/rundown-app/rundown/internal/testutil"
)

func newTestServer(t *testing.T) (*httptest.Server, *backend.Client) {
	t.Helper()
	return testutil.NewStubBackend(t)
}

func login(t *testing.T, srv *httptest.Server, client *backend.Client) {
	t.Helper()
	testutil.Login(t, srv, client)
}

func TestSessionLifecycle(t *testing.T) {
	srv, client := newTestServer(t)

	status, err := client.CheckSession(context.Background())
	if err != nil {
		t.Fatalf("session check failed: %v", err)
	}
	if status.Authenticated {
		t.Fatal("expected no session before login")
	}
	if status.Redirect != models.DefaultLoginRedirect {
		t.Errorf("expected login redirect, got %q", status.Redirect)
	}

	login(t, srv, client)
	status, err = client.CheckSession(context.Background())
	if err != nil {
		t.Fatalf("session check failed: %v", err)
	}
	if !status.Authenticated || status.UserID != "demo" {
		t.Errorf("expected an authenticated demo session, got %+v", status)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	_, client := newTestServer(t)

	_, err := client.CalendarEvents(context.Background())
	redirect, ok := backend.IsAuthRequired(err)
	if !ok {
		t.Fatalf("expected an auth error, got %v", err)
	}
	if redirect != models.DefaultLoginRedirect {
		t.Errorf("expected login redirect, got %q", redirect)
	}
}

func TestAddTaskAppearsInCalendar(t *testing.T) {
	srv, client := newTestServer(t)
	login(t, srv, client)

	resp, err := client.AddTask(context.Background(), models.AddTaskRequest{
		TaskText:    "Pick up dry cleaning",
		EventDate:   time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		DisplayDate: "tomorrow",
	})
	if err != nil {
		t.Fatalf("addtask failed: %v", err)
	}
	if resp.Response != "Pick up dry cleaning" || resp.Deadline != "tomorrow" {
		t.Errorf("unexpected addtask response: %+v", resp)
	}
	if backend.ExtractEventID(resp.Event) == "" {
		t.Errorf("expected an extractable event id in %q", resp.Event)
	}

	events, err := client.CalendarEvents(context.Background())
	if err != nil {
		t.Fatalf("calendar failed: %v", err)
	}
	found := false
	for _, ev := range events {
		if ev.Summary == "Pick up dry cleaning" {
			found = true
		}
	}
	if !found {
		t.Error("expected the new task in the calendar")
	}
}

func TestAddTaskBacklinksSuggestionEmail(t *testing.T) {
	srv, client := newTestServer(t)
	login(t, srv, client)

	suggestions, err := client.Suggestions(context.Background(), models.DefaultTimePeriod)
	if err != nil {
		t.Fatalf("suggestions failed: %v", err)
	}
	if len(suggestions) == 0 {
		t.Fatal("expected seeded suggestions")
	}

	resp, err := client.AddTask(context.Background(), models.AddTaskRequest{
		TaskText:  suggestions[0].Text,
		EventDate: suggestions[0].EventDate,
	})
	if err != nil {
		t.Fatalf("addtask failed: %v", err)
	}
	if resp.EmailID != suggestions[0].EmailID {
		t.Errorf("expected email id %q, got %q", suggestions[0].EmailID, resp.EmailID)
	}
}

func TestChatCommands(t *testing.T) {
	srv, client := newTestServer(t)
	login(t, srv, client)

	resp, err := client.Chat(context.Background(), models.ChatRequest{Message: "@add water the plants"})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if !resp.CommandDetected || resp.EventData == nil {
		t.Fatalf("expected a detected command with event data, got %+v", resp)
	}
	if resp.EventData.Title != "water the plants" || resp.EventData.EventID == "" {
		t.Errorf("unexpected event data: %+v", resp.EventData)
	}

	resp, err = client.Chat(context.Background(), models.ChatRequest{Message: "@list"})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if !strings.Contains(resp.Response, "water the plants") {
		t.Errorf("expected the new event in the listing, got %q", resp.Response)
	}
}

func TestChatFollowUpRoundTrip(t *testing.T) {
	srv, client := newTestServer(t)
	login(t, srv, client)

	resp, err := client.Chat(context.Background(), models.ChatRequest{Message: "anything in my email?"})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if !resp.AskFollowUp || resp.EventSuggestion == nil {
		t.Fatalf("expected a follow-up question, got %+v", resp)
	}

	resp, err = client.Chat(context.Background(), models.ChatRequest{
		Message:  "yes",
		FollowUp: true,
		Action:   models.FollowUpActionAdd,
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if resp.EventData == nil || resp.EventData.Title != "Call with the landlord" {
		t.Errorf("expected the pending suggestion to become an event, got %+v", resp)
	}
}

func TestDeleteEvent(t *testing.T) {
	srv, client := newTestServer(t)
	login(t, srv, client)

	events, err := client.CalendarEvents(context.Background())
	if err != nil {
		t.Fatalf("calendar failed: %v", err)
	}
	if err := client.DeleteEvent(context.Background(), events[0].ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	remaining, err := client.CalendarEvents(context.Background())
	if err != nil {
		t.Fatalf("calendar failed: %v", err)
	}
	if len(remaining) != len(events)-1 {
		t.Errorf("expected %d events after delete, got %d", len(events)-1, len(remaining))
	}

	err = client.DeleteEvent(context.Background(), "missing")
	var reqErr *backend.RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected a 404 request error, got %v", err)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, client := newTestServer(t)
	login(t, srv, client)
	if _, err := client.CalendarEvents(context.Background()); err != nil {
		t.Fatalf("calendar failed: %v", err)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "rundown_stub_http_requests_total") {
		t.Error("expected request counters in the metrics output")
	}
}
