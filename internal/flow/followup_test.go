package flow

import (
	"testing"

	"github.com/rundown-app/rundown/internal/models"
	"github.com/rundown-app/rundown/internal/store"
)

func TestMachineStartsIdle(t *testing.T) {
	m := NewMachine(store.NewInMemoryStore())
	if got := m.Current(); got != StateIdle {
		t.Errorf("initial state = %q, want idle", got)
	}
	if c := m.Consume("hello"); c.WasAwaiting || c.FollowUp {
		t.Errorf("consuming while idle should classify nothing: %+v", c)
	}
}

func TestArmThenAffirmativeAnswer(t *testing.T) {
	st := store.NewInMemoryStore()
	m := NewMachine(st)

	if err := m.Arm(models.EventSuggestion{Title: "Standup", Date: "Monday"}); err != nil {
		t.Fatalf("arm failed: %v", err)
	}
	if got := m.Current(); got != StateAwaitingFollowUp {
		t.Fatalf("state = %q, want awaiting", got)
	}

	c := m.Consume("yeah do it")
	if !c.WasAwaiting || !c.FollowUp || c.Action != "add_event" {
		t.Errorf("classification = %+v, want follow_up add_event", c)
	}
	if c.Suggestion == nil || c.Suggestion.Title != "Standup" {
		t.Errorf("suggestion payload lost: %+v", c.Suggestion)
	}
}

func TestNegativeAnswerStillConsumes(t *testing.T) {
	m := NewMachine(store.NewInMemoryStore())
	m.Arm(models.EventSuggestion{Title: "Standup"})

	c := m.Consume("no thanks, maybe later")
	if !c.WasAwaiting {
		t.Error("pending follow-up should have been consumed")
	}
	if c.FollowUp || c.Action != "" {
		t.Errorf("negative answer must not set follow-up fields: %+v", c)
	}
	if got := m.Current(); got != StateIdle {
		t.Errorf("state after consume = %q, want idle", got)
	}
}

func TestConsumedExactlyOnce(t *testing.T) {
	m := NewMachine(store.NewInMemoryStore())
	m.Arm(models.EventSuggestion{Title: "Standup"})

	first := m.Consume("yes")
	second := m.Consume("yes")
	if !first.WasAwaiting {
		t.Error("first message should consume the follow-up")
	}
	if second.WasAwaiting || second.FollowUp {
		t.Errorf("second message must see no pending follow-up: %+v", second)
	}
}

func TestFlagSurvivesRestart(t *testing.T) {
	st := store.NewInMemoryStore()
	NewMachine(st).Arm(models.EventSuggestion{Title: "Standup"})

	// A new machine over the same store models a client restart.
	m2 := NewMachine(st)
	if got := m2.Current(); got != StateAwaitingFollowUp {
		t.Errorf("state after restart = %q, want awaiting", got)
	}
	s, ok := m2.PendingSuggestion()
	if !ok || s.Title != "Standup" {
		t.Errorf("pending suggestion lost across restart: %+v, %v", s, ok)
	}
}

func TestIsAffirmative(t *testing.T) {
	affirmative := []string{
		"yes", "Yeah do it", "YEP", "sure thing", "ok", "Okay!",
		"please add it", "add", "create the event", "schedule it", "confirm",
	}
	for _, msg := range affirmative {
		if !IsAffirmative(msg) {
			t.Errorf("IsAffirmative(%q) = false, want true", msg)
		}
	}
	negative := []string{"no", "nah", "not now", "don't", "cancel that"}
	for _, msg := range negative {
		if IsAffirmative(msg) {
			t.Errorf("IsAffirmative(%q) = true, want false", msg)
		}
	}
}

func TestCorruptSuggestionPayload(t *testing.T) {
	st := store.NewInMemoryStore()
	st.SetValue(store.KeyAwaitingFollowUp, "true")
	st.SetValue(store.KeySuggestedEvent, "{not json")

	m := NewMachine(st)
	c := m.Consume("yes")
	if !c.WasAwaiting || !c.FollowUp {
		t.Errorf("corrupt payload must not block classification: %+v", c)
	}
	if c.Suggestion != nil {
		t.Errorf("corrupt payload should yield nil suggestion, got %+v", c.Suggestion)
	}
}
