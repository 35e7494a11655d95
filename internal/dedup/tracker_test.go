package dedup

import (
	"errors"
	"testing"

	"github.com/rundown-app/rundown/internal/models"
	"github.com/rundown-app/rundown/internal/store"
)

func TestAddTaskRejectsEqualNormalizedText(t *testing.T) {
	tr := NewTracker(store.NewInMemoryStore())

	if !tr.AddTask(models.Task{ID: "t1", Text: "Buy milk"}) {
		t.Fatal("first task should be accepted")
	}
	if tr.AddTask(models.Task{ID: "t2", Text: "  BUY MILK "}) {
		t.Error("second task with equal normalized text should be rejected")
	}
	if got := len(tr.Tasks()); got != 1 {
		t.Errorf("task list length = %d, want 1", got)
	}
}

func TestShouldAcceptPriorityOrder(t *testing.T) {
	tr := NewTracker(store.NewInMemoryStore())
	tr.AddTask(models.Task{ID: "t1", Text: "Standup", EventID: "ev-1", EmailID: "msg-1"})

	cases := []struct {
		name    string
		text    string
		eventID string
		emailID string
		want    bool
	}{
		{"same event id", "Different text", "ev-1", "", false},
		{"same email id", "Different text", "", "msg-1", false},
		{"same text only", "standup ", "", "", false},
		{"all different", "Plan retro", "ev-2", "msg-2", true},
		{"no identifiers new text", "Plan retro", "", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tr.ShouldAccept(tc.text, tc.eventID, tc.emailID); got != tc.want {
				t.Errorf("ShouldAccept(%q, %q, %q) = %v, want %v", tc.text, tc.eventID, tc.emailID, got, tc.want)
			}
		})
	}
}

func TestSuggestionRejectedForProcessedEmail(t *testing.T) {
	st := store.NewInMemoryStore()
	st.AddIdentifier(store.SetProcessedEmails, "msg-1")
	tr := NewTracker(st)

	s := models.Suggestion{Text: "Team dinner", EmailID: "msg-1"}
	if tr.ShouldAcceptSuggestion(s) {
		t.Error("suggestion with processed email ID must be rejected")
	}
}

func TestSuggestionRejectedForDeletedEvent(t *testing.T) {
	st := store.NewInMemoryStore()
	st.AddIdentifier(store.SetDeletedEvents, "msg-7")
	tr := NewTracker(st)

	if tr.ShouldAcceptSuggestion(models.Suggestion{Text: "Old event", EmailID: "msg-7"}) {
		t.Error("suggestion whose email ID is in deletedEventIds must be rejected")
	}
}

func TestSuggestionRejectedWhenEmailLabelsRenderedTask(t *testing.T) {
	tr := NewTracker(store.NewInMemoryStore())
	tr.AddTask(models.Task{ID: "t1", Text: "Dentist", EmailID: "msg-3"})

	if tr.ShouldAcceptSuggestion(models.Suggestion{Text: "Something else", EmailID: "msg-3"}) {
		t.Error("suggestion for an email already on the task list must be rejected")
	}
}

func TestFilterSuggestions(t *testing.T) {
	st := store.NewInMemoryStore()
	st.AddIdentifier(store.SetProcessedEmails, "msg-seen")
	tr := NewTracker(st)
	tr.AddTask(models.Task{ID: "t1", Text: "Pay rent"})

	in := []models.Suggestion{
		{Text: "Pay rent"},                        // duplicate text
		{Text: "Call bank", EmailID: "msg-seen"},  // processed email
		{Text: "Team dinner", EmailID: "msg-new"}, // genuinely new
		{Text: "   "},                             // unrenderable
	}
	out := tr.FilterSuggestions(in)
	if len(out) != 1 || out[0].Text != "Team dinner" {
		t.Errorf("FilterSuggestions = %+v, want only the team dinner", out)
	}
}

func TestDeletionRecordsIdentifiersOnlyOnSuccess(t *testing.T) {
	st := store.NewInMemoryStore()
	tr := NewTracker(st)
	tr.AddTask(models.Task{ID: "t1", Text: "Standup", EventID: "abc123", EmailID: "msg-1"})

	// Backend failure path: task leaves the view, sets stay untouched.
	task, ok := tr.RemoveTask("t1")
	if !ok {
		t.Fatal("task should have been removed")
	}
	if got := len(tr.Tasks()); got != 0 {
		t.Errorf("task list length = %d, want 0", got)
	}
	if ok, _ := st.HasIdentifier(store.SetDeletedEvents, "abc123"); ok {
		t.Error("deletedEventIds must not contain the event after a failed delete")
	}

	// Backend success path.
	tr.RecordDeletion(task)
	if ok, _ := st.HasIdentifier(store.SetDeletedEvents, "abc123"); !ok {
		t.Error("deletedEventIds must contain the event after a confirmed delete")
	}
	if ok, _ := st.HasIdentifier(store.SetProcessedEmails, "msg-1"); !ok {
		t.Error("processedEmailIds must contain the email after a confirmed delete")
	}
}

func TestDismissalMarksEmailProcessed(t *testing.T) {
	st := store.NewInMemoryStore()
	tr := NewTracker(st)

	tr.RecordDismissal(models.Suggestion{Text: "Team dinner", EmailID: "msg-1"})
	if ok, _ := st.HasIdentifier(store.SetProcessedEmails, "msg-1"); !ok {
		t.Error("dismissal must mark the email processed")
	}

	// A second suggestion for the same email must now be filtered.
	if tr.ShouldAcceptSuggestion(models.Suggestion{Text: "Team dinner again", EmailID: "msg-1"}) {
		t.Error("suggestion for dismissed email must be rejected")
	}
}

func TestAcceptingSuggestionDoesNotMarkEmailProcessed(t *testing.T) {
	st := store.NewInMemoryStore()
	tr := NewTracker(st)

	// Accepting means the suggestion becomes a task; only the task's own
	// identity blocks re-suggestion.
	tr.AddTask(models.Task{ID: "t1", Text: "Team dinner", EmailID: "msg-1"})
	if ok, _ := st.HasIdentifier(store.SetProcessedEmails, "msg-1"); ok {
		t.Error("accepting a suggestion must not touch processedEmailIds")
	}
	// Re-fetched suggestion is still filtered, by the rendered-task check.
	if tr.ShouldAcceptSuggestion(models.Suggestion{Text: "Team dinner", EmailID: "msg-1"}) {
		t.Error("re-fetched suggestion must be filtered by the task link")
	}
}

func TestReplaceTasksRewritesCurrentEventIDs(t *testing.T) {
	st := store.NewInMemoryStore()
	st.AddIdentifier(store.SetCurrentEvents, "ev-stale")
	tr := NewTracker(st)

	tr.ReplaceTasks([]models.Task{
		{ID: "t1", Text: "Standup", EventID: "ev-1"},
		{ID: "t2", Text: "Local only"},
	})
	ids, _ := st.ListIdentifiers(store.SetCurrentEvents)
	if len(ids) != 1 || ids[0] != "ev-1" {
		t.Errorf("currentEventIds = %v, want [ev-1]", ids)
	}
}

func TestUpdateStatus(t *testing.T) {
	tr := NewTracker(store.NewInMemoryStore())
	tr.AddTask(models.Task{ID: "t1", Text: "Standup"})

	if !tr.UpdateStatus("t1", models.TaskStatusCompleted) {
		t.Error("status update should succeed")
	}
	if tr.UpdateStatus("t1", "nonsense") {
		t.Error("invalid status must be rejected")
	}
	if tr.UpdateStatus("missing", models.TaskStatusInProgress) {
		t.Error("unknown task must be rejected")
	}
	if got := tr.Tasks()[0].Status; got != models.TaskStatusCompleted {
		t.Errorf("status = %q, want completed", got)
	}
}

// failingStore simulates an unavailable persistence backend.
type failingStore struct{}

var errUnavailable = errors.New("store unavailable")

func (failingStore) AddIdentifier(store.SetName, string) error          { return errUnavailable }
func (failingStore) HasIdentifier(store.SetName, string) (bool, error)  { return false, errUnavailable }
func (failingStore) ListIdentifiers(store.SetName) ([]string, error)    { return nil, errUnavailable }
func (failingStore) ReplaceIdentifiers(store.SetName, []string) error   { return errUnavailable }
func (failingStore) GetValue(string) (string, bool, error)              { return "", false, errUnavailable }
func (failingStore) SetValue(string, string) error                      { return errUnavailable }
func (failingStore) DeleteValue(string) error                           { return nil }
func (failingStore) Close() error                                       { return nil }

func TestStoreFailureShowsMoreNeverFewer(t *testing.T) {
	tr := NewTracker(failingStore{})

	// With the store down, nothing can be known as processed, so the
	// suggestion is shown again rather than hidden forever.
	if !tr.ShouldAcceptSuggestion(models.Suggestion{Text: "Team dinner", EmailID: "msg-1"}) {
		t.Error("a failing store must degrade toward showing suggestions")
	}
	// And task acceptance still works despite the failed set write.
	if !tr.AddTask(models.Task{ID: "t1", Text: "Standup", EventID: "ev-1"}) {
		t.Error("task acceptance must not depend on persistence")
	}
}
