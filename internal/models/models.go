// Package models defines the core data structures for the RunDown client.
//
// It includes tasks, suggestions, and the wire payloads exchanged with the
// RunDown backend, which are shared across modules.
package models

import (
	"errors"
	"strings"
)

// TaskStatus describes the progress of a task in the task list.
type TaskStatus string

const (
	// TaskStatusNotStarted is the initial status of every task.
	TaskStatusNotStarted TaskStatus = "not-started"
	// TaskStatusInProgress marks a task the user is working on.
	TaskStatusInProgress TaskStatus = "in-progress"
	// TaskStatusCompleted marks a finished task.
	TaskStatusCompleted TaskStatus = "completed"
)

// Validation constants for input validation
const (
	// MaxTaskTextLength defines the maximum allowed length for task text
	MaxTaskTextLength = 2000
	// MaxMessageLength defines the maximum allowed length for a chat message
	MaxMessageLength = 2000
)

// Error variables for better error handling and testability
var (
	ErrEmptyTaskText     = errors.New("task text cannot be empty")
	ErrTaskTextTooLong   = errors.New("task text exceeds maximum length")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrEmptyMessage      = errors.New("message cannot be empty")
	ErrMessageTooLong    = errors.New("message exceeds maximum length")
	ErrEmptySuggestion   = errors.New("suggestion text cannot be empty")
	ErrEmptyEventID      = errors.New("event ID cannot be empty")
)

// IsValidTaskStatus checks if the given task status is supported.
func IsValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// Task is a user-visible to-do item, optionally linked to a backend calendar
// event and/or source email.
type Task struct {
	ID       string     `json:"id"`
	Text     string     `json:"text"`
	Deadline string     `json:"deadline,omitempty"`
	EventID  string     `json:"event_id,omitempty"`
	EventURL string     `json:"event_url,omitempty"`
	EmailID  string     `json:"email_id,omitempty"`
	Status   TaskStatus `json:"status"`
	// Local marks a task that exists only in this client because the
	// backend request that should have created it failed.
	Local bool `json:"local,omitempty"`
}

// NormalizedText returns the task text lowered and trimmed, which is the
// textual identity used for duplicate detection.
func (t Task) NormalizedText() string {
	return NormalizeText(t.Text)
}

// Validate checks task fields before the task is added to the list.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Text) == "" {
		return ErrEmptyTaskText
	}
	if len(t.Text) > MaxTaskTextLength {
		return ErrTaskTextTooLong
	}
	if t.Status != "" && !IsValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}
	return nil
}

// Suggestion is a candidate task proposed by the backend from the user's
// email. Suggestions are ephemeral: they are never persisted, and both
// accepting and dismissing one are terminal.
type Suggestion struct {
	Text      string `json:"text"`
	Deadline  string `json:"deadline,omitempty"`
	Location  string `json:"location,omitempty"`
	EmailID   string `json:"email_id,omitempty"`
	EventDate string `json:"event_date,omitempty"`
	Urgent    bool   `json:"is_time_sensitive,omitempty"`
}

// NormalizedText returns the suggestion text lowered and trimmed.
func (s Suggestion) NormalizedText() string {
	return NormalizeText(s.Text)
}

// Validate checks that the suggestion is renderable.
func (s Suggestion) Validate() error {
	if strings.TrimSpace(s.Text) == "" {
		return ErrEmptySuggestion
	}
	return nil
}

// EventSuggestion is the pending calendar event attached to a follow-up
// question from the assistant ("Would you like me to add this?").
type EventSuggestion struct {
	Title     string `json:"title"`
	Date      string `json:"date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// NormalizeText lowers and trims text for identity comparison. Two tasks
// whose normalized texts are equal are the same task for dedup purposes.
func NormalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
