package memstore

import (
	"errors"
	"sync"

	"github.com/hmm29/conversational-emotion-ai/domain/entities"
	"github.com/hmm29/conversational-emotion-ai/domain/repositories"
)

var (
	// ErrSessionExists is returned when creating a session that already
	// has a conversation.
	ErrSessionExists = errors.New("session already exists")
	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionBusy is returned when a turn is already in flight for
	// the session. Each session processes strictly one turn at a time.
	ErrSessionBusy = errors.New("session has a turn in flight")
)

type entry struct {
	conversation *entities.Conversation
	busy         bool
}

// Store is an in-memory implementation of ConversationStore. Each
// conversation is exclusively leased to its session's handling context
// between Checkout and Release, so no locking is needed on the
// conversation itself.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	capacity int
}

var _ repositories.ConversationStore = (*Store)(nil)

// New creates an empty store. capacity bounds each conversation's turn
// count; non-positive falls back to the entity default.
func New(capacity int) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		capacity: capacity,
	}
}

// Create initializes a conversation for a new session.
func (s *Store) Create(sessionID string) (*entities.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; exists {
		return nil, ErrSessionExists
	}

	conversation := entities.NewConversation(s.capacity)
	s.sessions[sessionID] = &entry{conversation: conversation}
	return conversation, nil
}

// Checkout leases the session's conversation for exclusive use. It
// fails when another turn for the same session is still in flight.
func (s *Store) Checkout(sessionID string) (*entities.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	if e.busy {
		return nil, ErrSessionBusy
	}

	e.busy = true
	return e.conversation, nil
}

// Release returns a leased conversation to the store.
func (s *Store) Release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.sessions[sessionID]; exists {
		e.busy = false
	}
}

// Remove discards the session and returns its conversation, if any.
func (s *Store) Remove(sessionID string) (*entities.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.sessions[sessionID]
	if !exists {
		return nil, false
	}
	delete(s.sessions, sessionID)
	return e.conversation, true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
