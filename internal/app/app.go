// Package app wires the session gate, dedup tracker, follow-up machine, and
// backend client into the event handlers behind the RunDown client UI.
//
// Each handler takes a user or network event and returns the list of UI
// effects to apply. No handler failure is fatal: auth failures become a
// redirect effect, everything else degrades to a notification and, where
// feasible, a local-only fallback.
package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rundown-app/rundown/internal/backend"
	"github.com/rundown-app/rundown/internal/dedup"
	"github.com/rundown-app/rundown/internal/flow"
	"github.com/rundown-app/rundown/internal/models"
	"github.com/rundown-app/rundown/internal/store"
	"github.com/rundown-app/rundown/internal/ui"
)

// User-facing strings shared across handlers.
const (
	welcomeMessage = "👋 Hi there! I'm your RunDown assistant. Ask me anything about your tasks " +
		"or try commands like @add, @remove, or @list. Type @help to see all commands."
	duplicateTaskMessage = "This task already exists in your list!"
	chatFailureMessage   = "Sorry, there was an error processing your request."
	quickReplyAffirm     = "Yes, please add it to my calendar"
	quickReplyDecline    = "No, thank you"
)

// Backend is the slice of the HTTP client the app depends on.
type Backend interface {
	CheckSession(ctx context.Context) (models.SessionStatus, error)
	Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
	AddTask(ctx context.Context, req models.AddTaskRequest) (models.AddTaskResponse, error)
	CalendarEvents(ctx context.Context) ([]models.CalendarEvent, error)
	Suggestions(ctx context.Context, timePeriod string) ([]models.Suggestion, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Compile-time check that the HTTP client satisfies Backend.
var _ Backend = (*backend.Client)(nil)

// App is the client core.
type App struct {
	backend Backend
	store   store.Store
	tracker *dedup.Tracker
	flow    *flow.Machine

	mu          sync.Mutex
	suggestions []models.Suggestion
}

// New creates the client core over a backend and a state store.
func New(b Backend, st store.Store) *App {
	return &App{
		backend: b,
		store:   st,
		tracker: dedup.NewTracker(st),
		flow:    flow.NewMachine(st),
	}
}

// Tracker exposes the dedup tracker, mainly for tests and the UI task view.
func (a *App) Tracker() *dedup.Tracker {
	return a.tracker
}

// CheckSession is the session gate. It must run to completion before any
// other handler; any transport or parse failure fails closed. It returns
// whether the session is valid and, if not, where to send the user.
func (a *App) CheckSession(ctx context.Context) (bool, string) {
	status, err := a.backend.CheckSession(ctx)
	if err != nil {
		slog.Warn("Session check failed, treating as unauthenticated", "error", err)
		return false, models.DefaultLoginRedirect
	}
	if !status.Authenticated {
		redirect := status.Redirect
		if redirect == "" {
			redirect = models.DefaultLoginRedirect
		}
		return false, redirect
	}
	slog.Debug("Session valid", "user_id", status.UserID)
	return true, ""
}

// Bootstrap runs once after the session gate passes: first-run welcome,
// calendar load, suggestions load.
func (a *App) Bootstrap(ctx context.Context) []ui.Effect {
	var effects []ui.Effect

	if _, seen, err := a.store.GetValue(store.KeyWelcomeSeen); err == nil && !seen {
		effects = append(effects, ui.AppendMessage{Text: welcomeMessage, Markdown: true})
		if err := a.store.SetValue(store.KeyWelcomeSeen, "true"); err != nil {
			slog.Warn("Failed to persist welcome flag", "error", err)
		}
	}

	effects = append(effects, a.LoadCalendar(ctx)...)
	effects = append(effects, a.RefreshSuggestions(ctx, models.DefaultTimePeriod)...)
	return effects
}

// LoadCalendar fetches calendar events and rebuilds the task list from them.
func (a *App) LoadCalendar(ctx context.Context) []ui.Effect {
	events, err := a.backend.CalendarEvents(ctx)
	if err != nil {
		if redirect, ok := backend.IsAuthRequired(err); ok {
			return []ui.Effect{ui.RedirectToLogin{Target: redirect}}
		}
		return []ui.Effect{ui.Notify{
			Message: "Error loading events: " + backend.UserMessage(err),
			Level:   ui.NotifyError,
		}}
	}

	tasks := make([]models.Task, 0, len(events))
	for _, ev := range events {
		tasks = append(tasks, models.Task{
			ID:       uuid.NewString(),
			Text:     ev.Summary,
			Deadline: ev.Start.DateTime,
			EventID:  ev.ID,
			EventURL: ev.HTMLLink,
			EmailID:  ev.EmailID,
			Status:   models.TaskStatusNotStarted,
		})
	}
	a.tracker.ReplaceTasks(tasks)
	return []ui.Effect{ui.SetTasks{Tasks: a.tracker.Tasks()}}
}

// RefreshSuggestions fetches suggestions for the given time period and
// filters them through the dedup tracker.
func (a *App) RefreshSuggestions(ctx context.Context, timePeriod string) []ui.Effect {
	suggestions, err := a.backend.Suggestions(ctx, timePeriod)
	if err != nil {
		if redirect, ok := backend.IsAuthRequired(err); ok {
			return []ui.Effect{ui.RedirectToLogin{Target: redirect}}
		}
		a.setSuggestions(nil)
		return []ui.Effect{ui.SetSuggestions{
			Message: "Failed to load suggestions: " + backend.UserMessage(err),
		}}
	}

	if len(suggestions) == 0 {
		a.setSuggestions(nil)
		return []ui.Effect{ui.SetSuggestions{Message: "No suggestions found based on your interests"}}
	}

	filtered := a.tracker.FilterSuggestions(suggestions)
	a.setSuggestions(filtered)
	if len(filtered) == 0 {
		return []ui.Effect{ui.SetSuggestions{Message: "No new suggestions found"}}
	}
	return []ui.Effect{ui.SetSuggestions{Suggestions: filtered}}
}

// AddTaskFromInput handles manual task entry.
func (a *App) AddTaskFromInput(ctx context.Context, text, deadline string) []ui.Effect {
	text = strings.TrimSpace(text)
	if text == "" {
		return []ui.Effect{ui.Notify{Message: "Please enter a task!", Level: ui.NotifyError}}
	}
	if !a.tracker.ShouldAccept(text, "", "") {
		return []ui.Effect{ui.Notify{Message: duplicateTaskMessage, Level: ui.NotifyError}}
	}

	resp, err := a.backend.AddTask(ctx, models.AddTaskRequest{
		TaskText:    text,
		EventDate:   deadline,
		DisplayDate: deadline,
	})
	if err != nil {
		if redirect, ok := backend.IsAuthRequired(err); ok {
			return []ui.Effect{ui.RedirectToLogin{Target: redirect}}
		}
		// Fall back to a local-only task: still shown, just not linked
		// to a calendar event and not persisted anywhere.
		a.tracker.AddTask(models.Task{ID: uuid.NewString(), Text: text, Deadline: deadline, Local: true})
		return []ui.Effect{
			ui.Notify{Message: "Error: " + backend.UserMessage(err), Level: ui.NotifyError},
			ui.SetTasks{Tasks: a.tracker.Tasks()},
			ui.ClearTaskInput{},
		}
	}

	task := models.Task{
		ID:       uuid.NewString(),
		Text:     firstNonEmpty(resp.Response, text),
		Deadline: firstNonEmpty(resp.Deadline, deadline),
		EventID:  backend.ExtractEventID(resp.Event),
		EventURL: resp.Event,
		EmailID:  resp.EmailID,
	}
	if !a.tracker.AddTask(task) {
		return []ui.Effect{ui.Notify{Message: "This task already exists in your list", Level: ui.NotifyInfo}}
	}
	return []ui.Effect{
		ui.SetTasks{Tasks: a.tracker.Tasks()},
		ui.Notify{Message: "Task added successfully!", Level: ui.NotifySuccess},
		ui.ClearTaskInput{},
	}
}

// SendMessage handles a chat submission. The pending follow-up, if any, is
// consumed before classification, so it is spent exactly once per message.
func (a *App) SendMessage(ctx context.Context, message string) []ui.Effect {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}

	effects := []ui.Effect{ui.AppendMessage{Text: message, FromUser: true}}

	classification := a.flow.Consume(message)
	req := models.ChatRequest{Message: message}
	if classification.FollowUp {
		req.FollowUp = true
		req.Action = classification.Action
	}

	resp, err := a.backend.Chat(ctx, req)
	effects = append(effects, ui.SetChatLoading{On: false})
	if err != nil {
		if redirect, ok := backend.IsAuthRequired(err); ok {
			return append(effects, ui.RedirectToLogin{Target: redirect})
		}
		return append(effects, ui.AppendMessage{Text: chatFailureMessage})
	}

	useMarkdown := resp.CommandDetected || resp.Markdown
	effects = append(effects, ui.AppendMessage{Text: resp.Response, Markdown: useMarkdown})

	if resp.AskFollowUp && resp.EventSuggestion != nil {
		if err := a.flow.Arm(*resp.EventSuggestion); err != nil {
			slog.Warn("Failed to arm follow-up", "error", err)
		}
		effects = append(effects, ui.ShowQuickReplies{Affirm: quickReplyAffirm, Decline: quickReplyDecline})
	}

	if resp.CommandDetected && resp.EventData != nil {
		effects = append(effects, a.applyEventData(*resp.EventData)...)
	}

	if isGreeting(message) {
		effects = append(effects,
			ui.AppendMessage{Text: "Would you like to try one of these commands?"},
			ui.ShowCommandPalette{},
		)
	}
	return effects
}

// applyEventData mirrors a chat-command-created calendar event into the task
// list.
func (a *App) applyEventData(data models.EventData) []ui.Effect {
	if data.Title == "" || data.DateTime == "" {
		return nil
	}
	eventID := data.EventID
	if eventID == "" {
		eventID = backend.ExtractEventID(data.Link)
	}
	task := models.Task{
		ID:       uuid.NewString(),
		Text:     data.Title,
		Deadline: data.DateTime,
		EventID:  eventID,
		EventURL: data.Link,
		EmailID:  data.EmailID,
	}
	if !a.tracker.AddTask(task) {
		return nil
	}
	a.tracker.RecordProcessedEmail(data.EmailID)
	return []ui.Effect{
		ui.SetTasks{Tasks: a.tracker.Tasks()},
		ui.Notify{Message: "Added \"" + data.Title + "\" to your task list", Level: ui.NotifySuccess},
	}
}

// AcceptSuggestion turns the indexed suggestion into a task.
func (a *App) AcceptSuggestion(ctx context.Context, index int) []ui.Effect {
	s, ok := a.takeSuggestion(index)
	if !ok {
		return nil
	}
	removed := ui.RemoveSuggestion{Index: index}

	if !a.tracker.ShouldAccept(s.Text, "", "") {
		return []ui.Effect{
			ui.Notify{Message: duplicateTaskMessage, Level: ui.NotifyError},
			removed,
		}
	}

	resp, err := a.backend.AddTask(ctx, models.AddTaskRequest{
		TaskText:    s.Text,
		EventDate:   s.EventDate,
		RawDeadline: s.Deadline,
		DisplayDate: s.Deadline,
	})
	if err != nil {
		if redirect, ok := backend.IsAuthRequired(err); ok {
			return []ui.Effect{ui.RedirectToLogin{Target: redirect}}
		}
		a.tracker.AddTask(models.Task{ID: uuid.NewString(), Text: s.Text, Deadline: s.Deadline, Local: true})
		return []ui.Effect{
			ui.Notify{Message: "Error adding task: " + backend.UserMessage(err), Level: ui.NotifyError},
			ui.SetTasks{Tasks: a.tracker.Tasks()},
			removed,
		}
	}

	// Accepting deliberately leaves processedEmailIds alone; the new task
	// itself blocks re-suggestion by text or email link.
	task := models.Task{
		ID:       uuid.NewString(),
		Text:     firstNonEmpty(resp.Response, s.Text),
		Deadline: firstNonEmpty(resp.Deadline, s.Deadline),
		EventID:  backend.ExtractEventID(resp.Event),
		EventURL: resp.Event,
		EmailID:  s.EmailID,
	}
	a.tracker.AddTask(task)
	return []ui.Effect{
		ui.SetTasks{Tasks: a.tracker.Tasks()},
		ui.Notify{Message: "Task added to calendar!", Level: ui.NotifySuccess},
		removed,
	}
}

// DismissSuggestion drops the indexed suggestion and marks its source email
// processed so it is never suggested again.
func (a *App) DismissSuggestion(index int) []ui.Effect {
	s, ok := a.takeSuggestion(index)
	if !ok {
		return nil
	}
	a.tracker.RecordDismissal(s)
	return []ui.Effect{ui.RemoveSuggestion{Index: index}}
}

// DeleteTask removes a task. Tasks linked to a calendar event trigger a
// backend delete; the task leaves the UI regardless of the outcome, but the
// identifier sets are only updated when the backend confirmed the delete.
func (a *App) DeleteTask(ctx context.Context, taskID string) []ui.Effect {
	var target models.Task
	found := false
	for _, task := range a.tracker.Tasks() {
		if task.ID == taskID {
			target = task
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	if target.EventID == "" {
		a.tracker.RemoveTask(taskID)
		return []ui.Effect{ui.SetTasks{Tasks: a.tracker.Tasks()}}
	}

	err := a.backend.DeleteEvent(ctx, target.EventID)
	if err != nil {
		if redirect, ok := backend.IsAuthRequired(err); ok {
			return []ui.Effect{ui.RedirectToLogin{Target: redirect}}
		}
		a.tracker.RemoveTask(taskID)
		return []ui.Effect{
			ui.Notify{Message: "Failed to delete calendar event: " + backend.UserMessage(err), Level: ui.NotifyError},
			ui.SetTasks{Tasks: a.tracker.Tasks()},
		}
	}

	task, _ := a.tracker.RemoveTask(taskID)
	a.tracker.RecordDeletion(task)
	return []ui.Effect{
		ui.Notify{Message: "Event deleted successfully from calendar!", Level: ui.NotifySuccess},
		ui.SetTasks{Tasks: a.tracker.Tasks()},
	}
}

// ChangeTaskStatus updates a task's status.
func (a *App) ChangeTaskStatus(taskID string, status models.TaskStatus) []ui.Effect {
	if !a.tracker.UpdateStatus(taskID, status) {
		return nil
	}
	return []ui.Effect{ui.SetTasks{Tasks: a.tracker.Tasks()}}
}

// Suggestions returns the currently rendered suggestions.
func (a *App) Suggestions() []models.Suggestion {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.Suggestion, len(a.suggestions))
	copy(out, a.suggestions)
	return out
}

func (a *App) setSuggestions(s []models.Suggestion) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.suggestions = s
}

func (a *App) takeSuggestion(index int) (models.Suggestion, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.suggestions) {
		return models.Suggestion{}, false
	}
	s := a.suggestions[index]
	a.suggestions = append(a.suggestions[:index], a.suggestions[index+1:]...)
	return s, true
}

// isGreeting reports whether the message is one of the exact greetings that
// trigger the command palette hint.
func isGreeting(message string) bool {
	switch strings.ToLower(message) {
	case "hi", "hello", "hey":
		return true
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
