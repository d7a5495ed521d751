package worker

import (
	"sync"
	"time"
)

// Outcome is the single resolution of a pending request.
type Outcome struct {
	Value float64
	Err   error
}

type pendingCall struct {
	done  chan Outcome // cap 1, written exactly once
	timer *time.Timer
}

// PendingTable correlates in-flight request ids with their callers.
// Every registered entry is removed exactly once: by Resolve, by its
// deadline, by Remove, or by FailAll.
type PendingTable struct {
	kind    Kind
	mu      sync.Mutex
	entries map[string]*pendingCall
	closed  error
}

// NewPendingTable creates an empty table for one worker generation.
func NewPendingTable(kind Kind) *PendingTable {
	return &PendingTable{kind: kind, entries: make(map[string]*pendingCall)}
}

// Register stores a continuation under id and arms its deadline.
// The returned channel receives exactly one Outcome.
func (t *PendingTable) Register(id string, timeout time.Duration) (<-chan Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed != nil {
		return nil, t.closed
	}
	if _, dup := t.entries[id]; dup {
		return nil, protocolError{kind: t.kind, msg: "duplicate correlation id " + id}
	}
	pc := &pendingCall{done: make(chan Outcome, 1)}
	pc.timer = time.AfterFunc(timeout, func() {
		if t.take(id, pc) {
			pc.done <- Outcome{Err: timeoutError{kind: t.kind}}
		}
	})
	t.entries[id] = pc
	return pc.done, nil
}

// take removes id only if it still maps to pc.
func (t *PendingTable) take(id string, pc *pendingCall) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.entries[id]; ok && cur == pc {
		delete(t.entries, id)
		return true
	}
	return false
}

// Resolve delivers o to the caller waiting on id. Unknown, expired or
// already-resolved ids are dropped and Resolve reports false.
func (t *PendingTable) Resolve(id string, o Outcome) bool {
	t.mu.Lock()
	pc, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	pc.timer.Stop()
	pc.done <- o
	return true
}

// Remove drops id without resolving it; the caller owns the failure.
func (t *PendingTable) Remove(id string) bool {
	t.mu.Lock()
	pc, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	t.mu.Unlock()
	if ok {
		pc.timer.Stop()
	}
	return ok
}

// FailAll closes the table and fails every pending entry with err.
// Later Register calls return err. It returns the number of entries failed.
func (t *PendingTable) FailAll(err error) int {
	t.mu.Lock()
	if t.closed == nil {
		t.closed = err
	}
	entries := t.entries
	t.entries = make(map[string]*pendingCall)
	t.mu.Unlock()
	for _, pc := range entries {
		pc.timer.Stop()
		pc.done <- Outcome{Err: err}
	}
	return len(entries)
}

// Len returns the number of in-flight entries.
func (t *PendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
