package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rundown-app/rundown/internal/app"
	"github.com/rundown-app/rundown/internal/models"
	"github.com/rundown-app/rundown/internal/store"
	"github.com/rundown-app/rundown/internal/ui"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	st := store.NewInMemoryStore()
	t.Cleanup(func() { st.Close() })
	return NewModel(app.New(deadBackend{}, st))
}

// deadBackend fails every call; model tests never reach the network.
type deadBackend struct{}

func (deadBackend) CheckSession(context.Context) (models.SessionStatus, error) {
	return models.SessionStatus{}, context.Canceled
}
func (deadBackend) Chat(context.Context, models.ChatRequest) (models.ChatResponse, error) {
	return models.ChatResponse{}, context.Canceled
}
func (deadBackend) AddTask(context.Context, models.AddTaskRequest) (models.AddTaskResponse, error) {
	return models.AddTaskResponse{}, context.Canceled
}
func (deadBackend) CalendarEvents(context.Context) ([]models.CalendarEvent, error) {
	return nil, context.Canceled
}
func (deadBackend) Suggestions(context.Context, string) ([]models.Suggestion, error) {
	return nil, context.Canceled
}
func (deadBackend) DeleteEvent(context.Context, string) error { return context.Canceled }

func TestFailedSessionGateQuitsWithRedirect(t *testing.T) {
	m := newTestModel(t)
	m, cmd := m.Update(sessionMsg{ok: false, redirect: "/login"})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if !m.quitting || m.redirect != "/login" {
		t.Errorf("expected quitting with redirect, got quitting=%v redirect=%q", m.quitting, m.redirect)
	}
	if !strings.Contains(m.View(), "/login") {
		t.Error("expected the final view to show the login target")
	}
}

func TestApplyEffectsRendersChatAndTasks(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.applyEffects([]ui.Effect{
		ui.AppendMessage{Text: "**Today**: one event", Markdown: true},
		ui.SetTasks{Tasks: []models.Task{{ID: "t1", Text: "Dentist"}}},
		ui.SetSuggestions{Suggestions: []models.Suggestion{{Text: "Book flights", Urgent: true}}},
	})

	view := m.View()
	if !strings.Contains(view, "Today") {
		t.Error("expected the chat message in the view")
	}
	if !strings.Contains(view, "Dentist") {
		t.Error("expected the task in the view")
	}
	if !strings.Contains(view, "Book flights") {
		t.Error("expected the suggestion in the view")
	}
}

func TestNotificationExpiresBySequence(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.applyEffects([]ui.Effect{ui.Notify{Message: "first", Level: ui.NotifyInfo}})
	firstSeq := m.notifySeq
	m, _ = m.applyEffects([]ui.Effect{ui.Notify{Message: "second", Level: ui.NotifyInfo}})

	m, _ = m.Update(notifyExpiredMsg{seq: firstSeq})
	if m.notification != "second" {
		t.Errorf("stale expiry must not clear a newer notification, got %q", m.notification)
	}
	m, _ = m.Update(notifyExpiredMsg{seq: m.notifySeq})
	if m.notification != "" {
		t.Errorf("expected the notification cleared, got %q", m.notification)
	}
}

func TestCommandPaletteHidesBySequence(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.applyEffects([]ui.Effect{ui.ShowCommandPalette{}})
	if !m.paletteVisible {
		t.Fatal("expected the palette to show")
	}
	m, _ = m.Update(hidePaletteMsg{seq: m.paletteSeq})
	if m.paletteVisible {
		t.Error("expected the palette to hide")
	}
}

func TestQuickRepliesClearOnSubmit(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.applyEffects([]ui.Effect{ui.ShowQuickReplies{Affirm: "Yes, add it", Decline: "No"}})
	if m.quickAffirm == "" {
		t.Fatal("expected quick replies to be armed")
	}
	m, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	if cmd == nil {
		t.Fatal("expected the affirmative reply to dispatch a chat message")
	}
	if m.quickAffirm != "" {
		t.Error("expected quick replies to clear after use")
	}
}

func TestRemoveSuggestionClampsCursor(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.applyEffects([]ui.Effect{ui.SetSuggestions{Suggestions: []models.Suggestion{
		{Text: "a"}, {Text: "b"},
	}}})
	m.suggCursor = 1
	m, _ = m.applyEffects([]ui.Effect{ui.RemoveSuggestion{Index: 1}})
	if m.suggCursor != 0 {
		t.Errorf("expected the cursor clamped to 0, got %d", m.suggCursor)
	}
}

func TestChatTypingAndScroll(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeySpace})
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("there")})
	if m.chatInput != "hi there" {
		t.Errorf("expected input %q, got %q", "hi there", m.chatInput)
	}

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyPgUp})
	if m.scrollOffset != 1 {
		t.Errorf("expected scroll offset 1, got %d", m.scrollOffset)
	}
	m, _ = m.applyEffects([]ui.Effect{ui.AppendMessage{Text: "new line"}})
	if m.scrollOffset != 0 {
		t.Error("expected a near-bottom viewport to snap back down")
	}
}

func TestAutoScrollOnLongChat(t *testing.T) {
	cases := []struct {
		name       string
		offset     int
		wantOffset int
	}{
		{"near bottom snaps down", 5, 0},
		{"at threshold snaps down", ui.ScrollThreshold, 0},
		{"scrolled far back stays put", 90, 90},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestModel(t)
			m.height = 28 // 20 chat rows
			for i := 0; i < 120; i++ {
				m.chat = append(m.chat, chatLine{text: fmt.Sprintf("line %d", i)})
			}
			m.scrollOffset = tc.offset
			m, _ = m.applyEffects([]ui.Effect{ui.AppendMessage{Text: "new line"}})
			if m.scrollOffset != tc.wantOffset {
				t.Errorf("scroll offset after append = %d, want %d", m.scrollOffset, tc.wantOffset)
			}
		})
	}
}

func TestTimePeriodCycles(t *testing.T) {
	m := newTestModel(t)
	m.focus = paneSuggestions
	seen := map[string]bool{m.timePeriod: true}
	for i := 0; i < 3; i++ {
		m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
		if !models.IsValidTimePeriod(m.timePeriod) {
			t.Fatalf("cycled into invalid period %q", m.timePeriod)
		}
		seen[m.timePeriod] = true
	}
	if len(seen) != 4 {
		t.Errorf("expected all four periods visited, got %v", seen)
	}
}
