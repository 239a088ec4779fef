// Package memory provides in-process, per-session conversation history for
// multi-turn chats. History lives for the process lifetime only.
package memory

import (
	"strings"
	"sync"
)

// NoHistory is returned by History for sessions that have never spoken.
const NoHistory = "No previous conversation"

// Turn is a single conversation turn within a session.
type Turn struct {
	Role    string
	Content string
}

// Store holds bounded conversation history keyed by session id. It is safe
// for concurrent use; appends from simultaneous requests to the same session
// may interleave in arrival order.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
	maxTurns int
}

// NewStore creates a store that keeps at most maxTurns turns per session,
// evicting the oldest first.
func NewStore(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = 20
	}
	return &Store{
		sessions: make(map[string][]Turn),
		maxTurns: maxTurns,
	}
}

// Append adds a turn to the session, creating the session lazily and
// trimming the front once the bound is exceeded.
func (s *Store) Append(sessionID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.sessions[sessionID], Turn{Role: role, Content: content})
	if len(turns) > s.maxTurns {
		turns = turns[len(turns)-s.maxTurns:]
	}
	s.sessions[sessionID] = turns
}

// History returns the most recent limit turns formatted for prompt
// inclusion, one "<Role>: <content>" line per turn joined by blank lines.
func (s *Store) History(sessionID string, limit int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, exists := s.sessions[sessionID]
	if !exists {
		return NoHistory
	}
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, capitalize(turn.Role)+": "+turn.Content)
	}
	return strings.Join(lines, "\n\n")
}

// Turns returns a copy of the session's stored turns, oldest first.
func (s *Store) Turns(sessionID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Clear removes a session entirely. Clearing an unknown session is a safe
// no-op; the return value reports whether anything was removed.
func (s *Store) Clear(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	return exists
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
