// internal/store/store.go
package store

import (
	"sync"

	engine "github.com/feng-mou-mou/Railof1914/engine"
)

// GameStateStore holds the latest authoritative snapshot. Every successful
// backend response replaces it wholesale; responses older than the last
// applied one are discarded.
type GameStateStore struct {
	mu      sync.RWMutex
	state   *engine.MatchState
	nextSeq uint64 // Last sequence handed out by Begin.
	applied uint64 // Sequence of the snapshot currently held.
	version uint64 // Increments on every accepted replacement.
}

// New returns a store seeded with s. A nil s leaves the store empty.
func New(s *engine.MatchState) *GameStateStore {
	st := &GameStateStore{}
	if s != nil {
		st.state = s.Clone()
		st.version = 1
	}
	return st
}

// Begin stamps an outgoing request. The returned sequence must be passed to
// Apply with the response.
func (st *GameStateStore) Begin() uint64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.nextSeq++
	return st.nextSeq
}

// Apply replaces the snapshot with s unless a response stamped after seq has
// already been applied. Returns false when s was stale and dropped.
func (st *GameStateStore) Apply(seq uint64, s *engine.MatchState) bool {
	if s == nil {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if seq < st.applied {
		return false
	}
	st.applied = seq
	st.state = s.Clone()
	st.version++
	return true
}

// Replace installs a locally built snapshot, such as a turn handoff, as if it
// were the newest response.
func (st *GameStateStore) Replace(s *engine.MatchState) {
	if s == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.applied = st.nextSeq
	st.state = s.Clone()
	st.version++
}

// Update applies fn to a copy of the current snapshot and installs the result.
// It is a no-op when the store is empty.
func (st *GameStateStore) Update(fn func(s *engine.MatchState)) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.state == nil {
		return false
	}
	next := st.state.Clone()
	fn(next)
	st.applied = st.nextSeq
	st.state = next
	st.version++
	return true
}

// Snapshot returns a deep copy of the current state, or nil if none.
func (st *GameStateStore) Snapshot() *engine.MatchState {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.state.Clone()
}

// Round returns the current round, or 0 when empty.
func (st *GameStateStore) Round() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.state == nil {
		return 0
	}
	return st.state.Round
}

// Version counts accepted replacements.
func (st *GameStateStore) Version() uint64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.version
}
