package memory

import (
	"strings"
	"sync"
)

// DefaultCapacity is the number of interactions remembered per user.
const DefaultCapacity = 10

// Entry is one remembered question/answer pair.
type Entry struct {
	Question string
	Answer   string
}

// Stats summarises what the store currently holds.
type Stats struct {
	Users        int
	Interactions int
}

// Store keeps a bounded, in-process conversation history per user.
// Usernames are case-sensitive and histories never outlive the process.
type Store struct {
	capacity int
	users    map[string][]Entry

	mu sync.RWMutex
}

// NewStore creates a store that remembers up to capacity entries per user.
// Capacity is capped at DefaultCapacity; a non-positive value selects it.
func NewStore(capacity int) *Store {
	if capacity <= 0 || capacity > DefaultCapacity {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		users:    make(map[string][]Entry),
	}
}

// Capacity returns the per-user entry limit.
func (s *Store) Capacity() int {
	return s.capacity
}

// Context returns the user's remembered interactions formatted as a transcript,
// or an empty string when nothing is remembered.
func (s *Store) Context(username string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.users[username]
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Conversation history with this user:\n")
	for _, e := range entries {
		b.WriteString("User: ")
		b.WriteString(e.Question)
		b.WriteString("\nYour answer: ")
		b.WriteString(e.Answer)
		b.WriteString("\n")
	}
	return b.String()
}

// Entries returns a copy of the user's remembered interactions, oldest first.
func (s *Store) Entries(username string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.users[username]
	if len(entries) == 0 {
		return nil
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Record appends an interaction, dropping the oldest ones beyond capacity.
// It returns the number of entries now held for the user.
func (s *Store) Record(username, question, answer string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.users[username], Entry{Question: question, Answer: answer})
	if over := len(entries) - s.capacity; over > 0 {
		// Copy into a fresh slice so evicted entries are not pinned by the backing array.
		trimmed := make([]Entry, s.capacity)
		copy(trimmed, entries[over:])
		entries = trimmed
	}
	s.users[username] = entries
	return len(entries)
}

// Count returns the number of interactions remembered for a user.
func (s *Store) Count(username string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users[username])
}

// Clear forgets one user, or everyone when username is empty, and reports
// what was removed.
func (s *Store) Clear(username string) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if username != "" {
		entries, ok := s.users[username]
		if !ok {
			return Stats{}
		}
		delete(s.users, username)
		return Stats{Users: 1, Interactions: len(entries)}
	}

	removed := s.statsLocked()
	s.users = make(map[string][]Entry)
	return removed
}

// Stats reports the number of users and interactions held.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked()
}

func (s *Store) statsLocked() Stats {
	st := Stats{Users: len(s.users)}
	for _, entries := range s.users {
		st.Interactions += len(entries)
	}
	return st
}
