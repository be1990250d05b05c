package memory

import (
	"context"
	"sync"

	"github.com/Rrens/ollama-chat/internal/domain"
)

// Store keeps the session set in process memory. Nothing survives a restart.
type Store struct {
	mu       sync.Mutex
	sessions []domain.Session
	saved    bool
	saveErr  error
	saves    int
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{}
}

// NewStoreWith creates a store that already holds sessions
func NewStoreWith(sessions []domain.Session) *Store {
	return &Store{sessions: domain.CloneSessions(sessions), saved: true}
}

func (s *Store) Load(ctx context.Context) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return nil, nil
	}
	return domain.CloneSessions(s.sessions), nil
}

func (s *Store) Save(ctx context.Context, sessions []domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.sessions = domain.CloneSessions(sessions)
	s.saved = true
	s.saves++
	return nil
}

// FailSaves makes every following Save return err until cleared with nil
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Saves returns the number of successful writes
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}
