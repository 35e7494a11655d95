// Package dedup implements the identity tracker that decides whether an
// incoming task or suggestion is new.
//
// Identity is the triple (event ID, email ID, normalized text), checked in
// that priority order against the currently-rendered task list. Three
// persistent identifier sets back the suggestion filter: currentEventIds,
// deletedEventIds, and processedEmailIds. Decisions are purely local and
// cannot fail; set persistence is best-effort, and a failed read degrades to
// the empty set, which re-shows duplicates rather than hiding entries.
package dedup

import (
	"log/slog"
	"sync"

	"github.com/rundown-app/rundown/internal/models"
	"github.com/rundown-app/rundown/internal/store"
)

// Tracker owns the rendered task list and the three identifier sets.
type Tracker struct {
	store store.Store

	mu    sync.Mutex
	tasks []models.Task
}

// NewTracker creates a tracker backed by the given store.
func NewTracker(st store.Store) *Tracker {
	return &Tracker{store: st}
}

// Tasks returns a snapshot of the rendered task list.
func (t *Tracker) Tasks() []models.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Task, len(t.tasks))
	copy(out, t.tasks)
	return out
}

// ShouldAccept reports whether a candidate task is new. Priority order:
// event ID, then email ID, then normalized text.
func (t *Tracker) ShouldAccept(text, eventID, emailID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shouldAcceptLocked(text, eventID, emailID)
}

func (t *Tracker) shouldAcceptLocked(text, eventID, emailID string) bool {
	if eventID != "" {
		for _, task := range t.tasks {
			if task.EventID == eventID {
				slog.Debug("Tracker rejecting duplicate by event ID", "event_id", eventID)
				return false
			}
		}
	}
	if emailID != "" {
		for _, task := range t.tasks {
			if task.EmailID == emailID {
				slog.Debug("Tracker rejecting duplicate by email ID", "email_id", emailID)
				return false
			}
		}
	}
	normalized := models.NormalizeText(text)
	for _, task := range t.tasks {
		if task.NormalizedText() == normalized {
			slog.Debug("Tracker rejecting duplicate by text", "text", normalized)
			return false
		}
	}
	return true
}

// ShouldAcceptSuggestion applies the task checks plus the suggestion-only
// rules: a suggestion whose email ID is in deletedEventIds or
// processedEmailIds, or already labels a rendered task, is never shown.
func (t *Tracker) ShouldAcceptSuggestion(s models.Suggestion) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.shouldAcceptLocked(s.Text, "", s.EmailID) {
		return false
	}
	if s.EmailID == "" {
		return true
	}
	if t.hasIdentifier(store.SetDeletedEvents, s.EmailID) {
		slog.Debug("Tracker rejecting suggestion for deleted event", "email_id", s.EmailID)
		return false
	}
	if t.hasIdentifier(store.SetProcessedEmails, s.EmailID) {
		slog.Debug("Tracker rejecting suggestion for processed email", "email_id", s.EmailID)
		return false
	}
	return true
}

// FilterSuggestions keeps only suggestions that should be shown.
func (t *Tracker) FilterSuggestions(suggestions []models.Suggestion) []models.Suggestion {
	filtered := make([]models.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Validate() != nil {
			continue
		}
		if t.ShouldAcceptSuggestion(s) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// AddTask appends the task to the rendered list after a final duplicate
// check and records its event ID in currentEventIds. It returns false when
// the task was rejected as a duplicate.
func (t *Tracker) AddTask(task models.Task) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.shouldAcceptLocked(task.Text, task.EventID, task.EmailID) {
		return false
	}
	if task.Status == "" {
		task.Status = models.TaskStatusNotStarted
	}
	t.tasks = append(t.tasks, task)
	if task.EventID != "" {
		t.addIdentifier(store.SetCurrentEvents, task.EventID)
	}
	slog.Debug("Tracker accepted task", "text", task.Text, "event_id", task.EventID, "count", len(t.tasks))
	return true
}

// ReplaceTasks swaps the rendered list for the result of a calendar reload
// and replaces currentEventIds with the fetched event IDs.
func (t *Tracker) ReplaceTasks(tasks []models.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tasks = make([]models.Task, len(tasks))
	copy(t.tasks, tasks)

	eventIDs := make([]string, 0, len(tasks))
	for _, task := range tasks {
		if task.EventID != "" {
			eventIDs = append(eventIDs, task.EventID)
		}
	}
	if err := t.store.ReplaceIdentifiers(store.SetCurrentEvents, eventIDs); err != nil {
		slog.Warn("Tracker failed to persist current event IDs", "error", err)
	}
	slog.Debug("Tracker replaced task list", "tasks", len(tasks), "event_ids", len(eventIDs))
}

// RemoveTask takes the task with the given ID out of the rendered list. The
// removal is unconditional; whether the backend delete succeeded only
// affects the identifier sets, via RecordDeletion.
func (t *Tracker) RemoveTask(taskID string) (models.Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, task := range t.tasks {
		if task.ID == taskID {
			t.tasks = append(t.tasks[:i], t.tasks[i+1:]...)
			return task, true
		}
	}
	return models.Task{}, false
}

// RecordDeletion marks a successfully deleted task so its event and source
// email never produce a suggestion again. Call only after the backend
// confirmed the delete.
func (t *Tracker) RecordDeletion(task models.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if task.EventID != "" {
		t.addIdentifier(store.SetDeletedEvents, task.EventID)
	}
	if task.EmailID != "" {
		t.addIdentifier(store.SetProcessedEmails, task.EmailID)
	}
}

// RecordDismissal marks a dismissed suggestion's source email as processed.
// Accepting a suggestion deliberately does not go through here: the accepted
// task itself blocks re-suggestion by text or link.
func (t *Tracker) RecordDismissal(s models.Suggestion) {
	if s.EmailID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addIdentifier(store.SetProcessedEmails, s.EmailID)
}

// RecordProcessedEmail marks an email as handled, used when a chat command
// creates a task from an email.
func (t *Tracker) RecordProcessedEmail(emailID string) {
	if emailID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addIdentifier(store.SetProcessedEmails, emailID)
}

// UpdateStatus changes the status of a rendered task.
func (t *Tracker) UpdateStatus(taskID string, status models.TaskStatus) bool {
	if !models.IsValidTaskStatus(status) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.tasks {
		if t.tasks[i].ID == taskID {
			t.tasks[i].Status = status
			return true
		}
	}
	return false
}

// addIdentifier persists best-effort: a write failure is logged and the
// client carries on with the in-memory view.
func (t *Tracker) addIdentifier(set store.SetName, id string) {
	if err := t.store.AddIdentifier(set, id); err != nil {
		slog.Warn("Tracker failed to persist identifier", "error", err, "set", set)
	}
}

// hasIdentifier reads best-effort: a read failure counts as absent, which
// errs toward re-showing a suggestion rather than hiding it forever.
func (t *Tracker) hasIdentifier(set store.SetName, id string) bool {
	ok, err := t.store.HasIdentifier(set, id)
	if err != nil {
		slog.Warn("Tracker failed to read identifier set", "error", err, "set", set)
		return false
	}
	return ok
}
