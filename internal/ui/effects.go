// Package ui defines the render contract between the client core and the
// terminal front end.
//
// Core handlers return a list of Effect values describing intended UI
// changes; the adapter (a Bubble Tea program) executes them. The core never
// touches the terminal directly.
package ui

import (
	"time"

	"github.com/rundown-app/rundown/internal/models"
)

// Presentation timer durations.
const (
	// NotificationAutoHide is how long a notification banner stays visible.
	NotificationAutoHide = 5 * time.Second
	// CommandPaletteAutoHide is how long the command suggestion palette
	// stays visible before dismissing itself.
	CommandPaletteAutoHide = 15 * time.Second
)

// ScrollThreshold is how close to the bottom (in rows) the viewport must be
// for an appended message to trigger auto-scroll.
const ScrollThreshold = 50

// NotifyLevel classifies a notification banner.
type NotifyLevel string

const (
	NotifyInfo    NotifyLevel = "info"
	NotifySuccess NotifyLevel = "success"
	NotifyError   NotifyLevel = "error"
)

// Effect is one intended UI change.
type Effect interface {
	isEffect()
}

// AppendMessage appends a chat bubble.
type AppendMessage struct {
	Text     string
	FromUser bool
	Markdown bool
}

// SetChatLoading shows or hides the "..." placeholder that occupies the
// eventual bot message's position while a chat request is in flight.
type SetChatLoading struct {
	On bool
}

// SetTasks replaces the rendered task list.
type SetTasks struct {
	Tasks []models.Task
}

// SetSuggestions replaces the suggestions panel content. Message is shown
// instead of the list when no suggestions are available.
type SetSuggestions struct {
	Suggestions []models.Suggestion
	Loading     bool
	Message     string
}

// RemoveSuggestion removes a single suggestion from the panel.
type RemoveSuggestion struct {
	Index int
}

// Notify shows a banner that auto-hides after NotificationAutoHide.
type Notify struct {
	Message string
	Level   NotifyLevel
}

// ShowQuickReplies offers affirm/decline quick responses for a pending
// follow-up question.
type ShowQuickReplies struct {
	Affirm  string
	Decline string
}

// ShowCommandPalette shows the @-command suggestions, auto-hidden after
// CommandPaletteAutoHide.
type ShowCommandPalette struct{}

// ClearTaskInput empties the task entry field after a successful add.
type ClearTaskInput struct{}

// RedirectToLogin ends the session: the adapter shows the target and quits.
type RedirectToLogin struct {
	Target string
}

func (AppendMessage) isEffect()      {}
func (SetChatLoading) isEffect()     {}
func (SetTasks) isEffect()           {}
func (SetSuggestions) isEffect()     {}
func (RemoveSuggestion) isEffect()   {}
func (Notify) isEffect()             {}
func (ShowQuickReplies) isEffect()   {}
func (ShowCommandPalette) isEffect() {}
func (ClearTaskInput) isEffect()     {}
func (RedirectToLogin) isEffect()    {}

// ShouldAutoScroll reports whether appending content should scroll the chat
// viewport to the bottom: only when the viewport already was within
// ScrollThreshold rows of the bottom, so a user who scrolled back stays put.
func ShouldAutoScroll(distanceFromBottom int) bool {
	return distanceFromBottom <= ScrollThreshold
}
