// internal/session/locks.go
package session

import (
	"sync"

	"github.com/google/uuid"
)

// lockTable hands out one mutex per live lobby so mutating operations on
// the same lobby serialize while different lobbies proceed in parallel.
// Entries are refcounted and dropped when the last holder releases, so
// the table stays proportional to in-flight work rather than to every
// lobby ever seen.
type lockTable struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[uuid.UUID]*lockEntry)}
}

// acquire blocks until the lobby's mutex is held and returns the release
// function.
func (t *lockTable) acquire(id uuid.UUID) func() {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		e = &lockEntry{}
		t.entries[id] = e
	}
	e.refs++
	t.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		t.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(t.entries, id)
		}
		t.mu.Unlock()
	}
}
