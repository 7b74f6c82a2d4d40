package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps all records in process memory. It backs the server
// when no database is configured and doubles as the test fixture.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	messages map[string][]Message // keyed by session ID, insertion order
	leads    map[string][]Lead    // keyed by session ID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		messages: make(map[string][]Message),
		leads:    make(map[string][]Lead),
	}
}

func (s *MemoryStore) Close() error { return nil }

// Session methods
func (s *MemoryStore) CreateSession() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	session := &Session{
		ID:        uuid.NewString(),
		TurnCount: 0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[session.ID] = session
	return copySession(session), nil
}

func (s *MemoryStore) GetSession(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, nil // Not found
	}
	return copySession(session), nil
}

func (s *MemoryStore) IncrementSessionTurn(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, nil // Not found
	}
	session.TurnCount++
	session.UpdatedAt = time.Now()
	return copySession(session), nil
}

func (s *MemoryStore) SetSessionMetadata(id string, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session not found, metadata not updated")
	}
	if session.Metadata == nil {
		session.Metadata = make(map[string]any)
	}
	session.Metadata[key] = value
	session.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) MarkFormSubmitted(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session not found, form flag not updated")
	}
	session.FormSubmitted = true
	session.UpdatedAt = time.Now()
	return nil
}

// Message methods
func (s *MemoryStore) CreateMessage(msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now()
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], *msg)
	return nil
}

func (s *MemoryStore) GetMessagesBySession(sessionID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.messages[sessionID]
	messages := make([]Message, len(stored))
	copy(messages, stored)
	return messages, nil
}

// Lead methods
func (s *MemoryStore) CreateLead(lead *Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead.ID = uuid.NewString()
	lead.CreatedAt = time.Now()
	s.leads[lead.SessionID] = append(s.leads[lead.SessionID], *lead)
	return nil
}

func (s *MemoryStore) GetLeadsBySession(sessionID string) ([]Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.leads[sessionID]
	leads := make([]Lead, len(stored))
	copy(leads, stored)
	return leads, nil
}

func copySession(session *Session) *Session {
	out := *session
	if session.Metadata != nil {
		out.Metadata = make(map[string]any, len(session.Metadata))
		for k, v := range session.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
