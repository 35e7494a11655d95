// Package flow implements the conversational follow-up state machine.
//
// The machine has two states: Idle, and AwaitingFollowUp with a pending
// event suggestion. Both are persisted in the client store so a pending
// question survives restarts. The flag is consumed exactly once, by the next
// user message, before that message is classified; unrelated actions and
// inactivity never clear it.
package flow

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/rundown-app/rundown/internal/models"
	"github.com/rundown-app/rundown/internal/store"
)

// StateType identifies a state of the follow-up machine.
type StateType string

const (
	// StateIdle means no question is pending.
	StateIdle StateType = "idle"
	// StateAwaitingFollowUp means the assistant asked a yes/no question
	// and the next user message answers it.
	StateAwaitingFollowUp StateType = "awaiting_followup"
)

// affirmativeVocabulary is the fixed set of phrases that count as "yes".
// Matching is case-insensitive substring containment.
var affirmativeVocabulary = []string{
	"yes", "yeah", "yep", "sure", "ok", "okay",
	"add it", "add", "create", "schedule", "confirm",
}

// Classification is the result of consuming a user message.
type Classification struct {
	// WasAwaiting reports whether a follow-up was pending when the
	// message arrived.
	WasAwaiting bool
	// FollowUp marks the outgoing chat request as a follow-up answer.
	FollowUp bool
	// Action is the backend action for an affirmative answer.
	Action string
	// Suggestion is the event suggestion the question was about.
	Suggestion *models.EventSuggestion
}

// Machine tracks the follow-up state in the client store.
type Machine struct {
	store store.Store
}

// NewMachine creates a follow-up machine backed by the given store.
func NewMachine(st store.Store) *Machine {
	return &Machine{store: st}
}

// Current returns the persisted state. A store read failure counts as Idle:
// the message then travels as an ordinary chat turn.
func (m *Machine) Current() StateType {
	v, ok, err := m.store.GetValue(store.KeyAwaitingFollowUp)
	if err != nil {
		slog.Warn("Follow-up state read failed, treating as idle", "error", err)
		return StateIdle
	}
	if ok && v == "true" {
		return StateAwaitingFollowUp
	}
	return StateIdle
}

// PendingSuggestion returns the event suggestion the pending question refers
// to, if one is stored.
func (m *Machine) PendingSuggestion() (*models.EventSuggestion, bool) {
	v, ok, err := m.store.GetValue(store.KeySuggestedEvent)
	if err != nil || !ok {
		return nil, false
	}
	var s models.EventSuggestion
	if err := json.Unmarshal([]byte(v), &s); err != nil {
		slog.Warn("Pending suggestion payload corrupt", "error", err)
		return nil, false
	}
	return &s, true
}

// Arm transitions Idle -> AwaitingFollowUp, storing the suggestion payload.
func (m *Machine) Arm(s models.EventSuggestion) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := m.store.SetValue(store.KeySuggestedEvent, string(payload)); err != nil {
		return err
	}
	if err := m.store.SetValue(store.KeyAwaitingFollowUp, "true"); err != nil {
		return err
	}
	slog.Debug("Follow-up armed", "title", s.Title)
	return nil
}

// Consume transitions AwaitingFollowUp -> Idle unconditionally, then
// classifies the consumed message. The clear happens before classification
// so one pending follow-up is consumed exactly once even if classification
// is ambiguous. When no follow-up was pending the zero Classification is
// returned.
func (m *Machine) Consume(message string) Classification {
	state := m.Current()
	suggestion, _ := m.PendingSuggestion()

	// Clear first, regardless of how (or whether) the message answers.
	if err := m.store.DeleteValue(store.KeyAwaitingFollowUp); err != nil {
		slog.Warn("Failed to clear follow-up flag", "error", err)
	}
	if err := m.store.DeleteValue(store.KeySuggestedEvent); err != nil {
		slog.Warn("Failed to clear suggested event payload", "error", err)
	}

	if state != StateAwaitingFollowUp {
		return Classification{}
	}

	c := Classification{WasAwaiting: true, Suggestion: suggestion}
	if IsAffirmative(message) {
		c.FollowUp = true
		c.Action = models.FollowUpActionAdd
	}
	slog.Debug("Follow-up consumed", "affirmative", c.FollowUp)
	return c
}

// IsAffirmative reports whether the message contains any phrase of the
// affirmative vocabulary, case-insensitively.
func IsAffirmative(message string) bool {
	lowered := strings.ToLower(message)
	for _, phrase := range affirmativeVocabulary {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
