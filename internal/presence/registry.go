// Package presence tracks which live transport sessions belong to which user.
// The default registry is process-local and volatile: a restart loses all
// entries and clients re-register on reconnect.
package presence

import (
	"sort"
	"sync"

	"petnet/backend/internal/models"
)

// Registry maps a logical user to the set of currently open sessions.
// The in-memory implementation is the single-node default; a shared external
// store can substitute without changing the messaging service's contract.
type Registry interface {
	// Register idempotently adds sessionID to the user's session set, creating
	// the entry if absent. Always succeeds.
	Register(userID, sessionID string)
	// Unregister removes sessionID from whichever user owns it and drops the
	// whole entry once its session set is empty. No-op for unknown sessions.
	Unregister(sessionID string)
	// Lookup returns the user's live session ids. ok is false when the user
	// has no sessions; a present user always has at least one session.
	Lookup(userID string) (sessions []string, ok bool)
	// Snapshot returns every entry, for the getUsers broadcast.
	Snapshot() []models.PresenceEntry
}

// MemoryRegistry is the mutex-guarded in-process Registry. Connect and
// disconnect events race with reads from the messaging path, so every access
// goes through the lock.
type MemoryRegistry struct {
	mu sync.Mutex
	// byUser holds the session set per user; an entry is removed the moment
	// its set becomes empty, never left present-but-empty.
	byUser    map[string]map[string]struct{}
	bySession map[string]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byUser:    make(map[string]map[string]struct{}),
		bySession: make(map[string]string),
	}
}

func (r *MemoryRegistry) Register(userID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A session can belong to at most one user; re-binding moves it.
	if prev, ok := r.bySession[sessionID]; ok && prev != userID {
		r.removeLocked(prev, sessionID)
	}

	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[string]struct{})
		r.byUser[userID] = set
	}
	set[sessionID] = struct{}{}
	r.bySession[sessionID] = userID
}

func (r *MemoryRegistry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.bySession[sessionID]
	if !ok {
		return
	}
	r.removeLocked(userID, sessionID)
}

func (r *MemoryRegistry) removeLocked(userID, sessionID string) {
	delete(r.bySession, sessionID)
	if set, ok := r.byUser[userID]; ok {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(r.byUser, userID)
		}
	}
}

func (r *MemoryRegistry) Lookup(userID string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.byUser[userID]
	if !ok {
		return nil, false
	}
	sessions := make([]string, 0, len(set))
	for id := range set {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, true
}

func (r *MemoryRegistry) Snapshot() []models.PresenceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]models.PresenceEntry, 0, len(r.byUser))
	for userID, set := range r.byUser {
		sessions := make([]string, 0, len(set))
		for id := range set {
			sessions = append(sessions, id)
		}
		sort.Strings(sessions)
		entries = append(entries, models.PresenceEntry{UserID: userID, SessionIDs: sessions})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UserID < entries[j].UserID })
	return entries
}
