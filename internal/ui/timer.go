package ui

import (
	"fmt"
	"sync"
	"time"
)

// PresentationTimer schedules the auto-hide of transient UI elements: the
// notification banner and the command palette. These are presentation
// timers, not retry or cancellation mechanisms.
type PresentationTimer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	nextID int64
}

// NewPresentationTimer creates an empty timer registry.
func NewPresentationTimer() *PresentationTimer {
	return &PresentationTimer{timers: make(map[string]*time.Timer)}
}

// ScheduleAfter runs fn once after delay and returns an ID for Cancel.
func (t *PresentationTimer) ScheduleAfter(delay time.Duration, fn func()) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := fmt.Sprintf("timer_%d", t.nextID)
	t.timers[id] = time.AfterFunc(delay, func() {
		t.mu.Lock()
		delete(t.timers, id)
		t.mu.Unlock()
		fn()
	})
	return id
}

// Cancel stops a scheduled timer. Cancelling an unknown or already-fired
// timer is a no-op.
func (t *PresentationTimer) Cancel(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
}

// Stop cancels all pending timers.
func (t *PresentationTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
}
