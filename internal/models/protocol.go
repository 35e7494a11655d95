// Package models defines wire payloads for the RunDown backend endpoints.
package models

// Time period values accepted by the /addsuggestion endpoint.
const (
	TimePeriodDay        = "1"
	TimePeriodWeek       = "7"
	TimePeriodTwoWeeks   = "15"
	TimePeriodMonth      = "30"
	DefaultTimePeriod    = TimePeriodWeek
	FollowUpActionAdd    = "add_event"
	DefaultLoginRedirect = "/login"
)

// IsValidTimePeriod checks if the given time period is accepted by the backend.
func IsValidTimePeriod(p string) bool {
	switch p {
	case TimePeriodDay, TimePeriodWeek, TimePeriodTwoWeeks, TimePeriodMonth:
		return true
	default:
		return false
	}
}

// SessionStatus is the response of GET /api/session.
type SessionStatus struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
	Redirect      string `json:"redirect,omitempty"`
}

// ChatRequest is the payload of POST /chat.
type ChatRequest struct {
	Message  string `json:"message"`
	FollowUp bool   `json:"follow_up,omitempty"`
	Action   string `json:"action,omitempty"`
}

// Validate checks the chat request before it is sent.
func (r ChatRequest) Validate() error {
	if r.Message == "" {
		return ErrEmptyMessage
	}
	if len(r.Message) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// EventData carries the calendar event a chat command created, so the client
// can mirror it into the task list.
type EventData struct {
	Title    string `json:"title,omitempty"`
	DateTime string `json:"datetime,omitempty"`
	Link     string `json:"link,omitempty"`
	EventID  string `json:"event_id,omitempty"`
	EmailID  string `json:"email_id,omitempty"`
}

// ChatResponse is the response of POST /chat.
type ChatResponse struct {
	Response        string           `json:"response"`
	CommandDetected bool             `json:"command_detected,omitempty"`
	Markdown        bool             `json:"markdown,omitempty"`
	AskFollowUp     bool             `json:"ask_followup,omitempty"`
	EventSuggestion *EventSuggestion `json:"event_suggestion,omitempty"`
	EventData       *EventData       `json:"event_data,omitempty"`
}

// AddTaskRequest is the payload of POST /addtask.
type AddTaskRequest struct {
	TaskText    string         `json:"task_text"`
	EventDate   string         `json:"event_date"`
	DisplayDate string         `json:"display_date"`
	RawDeadline string         `json:"raw_deadline,omitempty"`
	DebugInfo   map[string]any `json:"debug_info,omitempty"`
}

// Validate checks the add-task request before it is sent.
func (r AddTaskRequest) Validate() error {
	if r.TaskText == "" {
		return ErrEmptyTaskText
	}
	if len(r.TaskText) > MaxTaskTextLength {
		return ErrTaskTextTooLong
	}
	return nil
}

// AddTaskResponse is the response of POST /addtask.
type AddTaskResponse struct {
	Response string `json:"response"`
	Event    string `json:"event,omitempty"`
	Deadline string `json:"deadline,omitempty"`
	EmailID  string `json:"email_id,omitempty"`
}

// EventTime is the start time block of a calendar event.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
}

// CalendarEvent is one entry of the GET /calendar response.
type CalendarEvent struct {
	Summary  string    `json:"summary"`
	Start    EventTime `json:"start"`
	HTMLLink string    `json:"htmlLink,omitempty"`
	ID       string    `json:"id"`
	EmailID  string    `json:"email_id,omitempty"`
}

// CalendarResponse is the response of GET /calendar.
type CalendarResponse struct {
	Events []CalendarEvent `json:"events"`
}

// SuggestionsRequest is the payload of POST /addsuggestion.
type SuggestionsRequest struct {
	TimePeriod string `json:"time_period"`
}

// SuggestionsResponse is the response of POST /addsuggestion.
type SuggestionsResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// DeleteEventRequest is the payload of POST /calendar/delete.
type DeleteEventRequest struct {
	EventID string `json:"event_id"`
}

// Validate checks the delete request before it is sent.
func (r DeleteEventRequest) Validate() error {
	if r.EventID == "" {
		return ErrEmptyEventID
	}
	return nil
}

// DeleteEventResponse is the response of POST /calendar/delete.
type DeleteEventResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the body the backend sends with non-2xx statuses.
type ErrorResponse struct {
	Error    string `json:"error,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}
