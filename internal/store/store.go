// Package store provides client-local persistent storage for RunDown.
//
// It generalizes the browser's localStorage into a small key-value store
// plus named identifier sets, with in-memory, SQLite, and PostgreSQL
// backends. JSON (de)serialization happens at the caller's boundary; the
// store only sees opaque strings.
package store

import (
	"sync"
)

// SetName identifies one of the persistent identifier sets.
type SetName string

const (
	// SetCurrentEvents holds the calendar event IDs of currently-known tasks.
	SetCurrentEvents SetName = "currentEventIds"
	// SetDeletedEvents holds event IDs the user deleted; suggestions for
	// these must never be shown again.
	SetDeletedEvents SetName = "deletedEventIds"
	// SetProcessedEmails holds email IDs whose suggestions were handled;
	// suggestions for these must never be shown again.
	SetProcessedEmails SetName = "processedEmailIds"
)

// Keys of single persistent values.
const (
	// KeyAwaitingFollowUp is "true" while the assistant awaits a yes/no answer.
	KeyAwaitingFollowUp = "awaitingFollowUp"
	// KeySuggestedEvent holds the JSON-encoded pending event suggestion.
	KeySuggestedEvent = "suggestedEventData"
	// KeyWelcomeSeen is "true" once the welcome message has been shown.
	KeyWelcomeSeen = "chatWelcomeSeen"
)

// Store is the persistence interface for identifier sets and client values.
// Identifier sets are monotonically growing; AddIdentifier is idempotent and
// ReplaceIdentifiers is the only destructive set operation.
type Store interface {
	// AddIdentifier inserts id into the named set. Inserting an existing
	// identifier is a no-op, not an error.
	AddIdentifier(set SetName, id string) error

	// HasIdentifier reports whether id is present in the named set.
	HasIdentifier(set SetName, id string) (bool, error)

	// ListIdentifiers returns all identifiers of the named set.
	ListIdentifiers(set SetName) ([]string, error)

	// ReplaceIdentifiers swaps the full content of the named set.
	ReplaceIdentifiers(set SetName, ids []string) error

	// GetValue returns the value for key and whether it was present.
	GetValue(key string) (string, bool, error)

	// SetValue stores or overwrites the value for key.
	SetValue(key, value string) error

	// DeleteValue removes the value for key. Missing keys are not an error.
	DeleteValue(key string) error

	// Close releases the underlying resources.
	Close() error
}

// InMemoryStore is a simple in-memory store, used in tests and as the
// fallback when no persistent backend is configured. State vanishes with the
// process, which matches the "absent means empty" contract.
type InMemoryStore struct {
	mu     sync.Mutex
	sets   map[SetName][]string
	values map[string]string
}

// Compile-time check that InMemoryStore implements Store.
var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sets:   make(map[SetName][]string),
		values: make(map[string]string),
	}
}

func (s *InMemoryStore) AddIdentifier(set SetName, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sets[set] {
		if existing == id {
			return nil
		}
	}
	s.sets[set] = append(s.sets[set], id)
	return nil
}

func (s *InMemoryStore) HasIdentifier(set SetName, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sets[set] {
		if existing == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) ListIdentifiers(set SetName) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sets[set]))
	copy(out, s.sets[set])
	return out, nil
}

func (s *InMemoryStore) ReplaceIdentifiers(set SetName, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	replacement := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			replacement = append(replacement, id)
		}
	}
	s.sets[set] = replacement
	return nil
}

func (s *InMemoryStore) GetValue(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *InMemoryStore) SetValue(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *InMemoryStore) DeleteValue(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
