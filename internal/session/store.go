package session

import (
	"sync"

	"github.com/diogo/readalong/internal/models"
)

// Store is the append-only in-memory transcript of one session
type Store struct {
	mu       sync.RWMutex
	messages []models.Message
}

// NewStore creates an empty transcript
func NewStore() *Store {
	return &Store{}
}

// Append adds messages to the end of the transcript in one step
func (s *Store) Append(msgs ...models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
}

// All returns a copy of the transcript in insertion order
func (s *Store) All() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Last returns the most recent message with the given role
func (s *Store) Last(role models.Role) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == role {
			return s.messages[i], true
		}
	}
	return models.Message{}, false
}

// Reset drops every message
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}
