package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/rs/zerolog/log"
)

// SessionStore owns the session set, the active-session pointer and the id counter.
// Every mutation is written through the repository before it becomes visible.
type SessionStore struct {
	mu       sync.RWMutex
	repo     domain.SessionRepository
	renderer domain.Renderer
	now      func() time.Time

	sessions []domain.Session
	activeID int64
	nextID   int64
}

// NewSessionStore creates an empty store; call Load before use
func NewSessionStore(repo domain.SessionRepository, renderer domain.Renderer) *SessionStore {
	if renderer == nil {
		renderer = domain.NopRenderer{}
	}
	return &SessionStore{
		repo:     repo,
		renderer: renderer,
		now:      time.Now,
		nextID:   1,
	}
}

// Load reads the persisted session set, activates the first session and
// seeds the renderer with every transcript
func (s *SessionStore) Load(ctx context.Context) error {
	sessions, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = sessions
	s.nextID = 1
	for _, sess := range sessions {
		if sess.ID >= s.nextID {
			s.nextID = sess.ID + 1
		}
	}
	s.activeID = 0
	if len(sessions) > 0 {
		s.activeID = sessions[0].ID
	}
	for _, sess := range sessions {
		s.renderer.Reset(sess.ID, sess.Clone().Messages)
	}

	log.Info().Int("sessions", len(sessions)).Int64("next_id", s.nextID).Msg("Sessions loaded")
	return nil
}

// EnsureSession creates the first session when none exist and returns the active one
func (s *SessionStore) EnsureSession(ctx context.Context) (domain.Session, error) {
	if sess, ok := s.Active(); ok {
		return sess, nil
	}
	return s.Create(ctx)
}

// Create allocates the next id, appends a new session and makes it active
func (s *SessionStore) Create(ctx context.Context) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	sess := domain.Session{
		ID:        id,
		Name:      domain.DefaultSessionName(id),
		Messages:  []domain.Message{},
		CreatedAt: s.now().UTC(),
	}

	next := append(domain.CloneSessions(s.sessions), sess)
	if err := s.commit(ctx, next); err != nil {
		return domain.Session{}, err
	}
	s.nextID = id + 1
	s.activeID = id
	s.renderer.Reset(id, nil)

	log.Info().Int64("session_id", id).Msg("Session created")
	return sess.Clone(), nil
}

// SwitchTo activates the session with id
func (s *SessionStore) SwitchTo(id int64) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Session{}, domain.ErrNotFound
	}
	s.activeID = id
	sess := s.sessions[i].Clone()
	s.renderer.Reset(id, sess.Messages)
	return sess, nil
}

// Delete removes a session. The last remaining session cannot be deleted.
func (s *SessionStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	if len(s.sessions) == 1 {
		return domain.ErrLastSession
	}

	next := make([]domain.Session, 0, len(s.sessions)-1)
	for j, sess := range s.sessions {
		if j != i {
			next = append(next, sess.Clone())
		}
	}
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	if s.activeID == id {
		s.activeID = s.sessions[0].ID
		s.renderer.Reset(s.activeID, s.sessions[0].Clone().Messages)
	}

	log.Info().Int64("session_id", id).Int64("active_id", s.activeID).Msg("Session deleted")
	return nil
}

// Rename replaces the name of a session; unknown ids are ignored
func (s *SessionStore) Rename(ctx context.Context, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}

	next := domain.CloneSessions(s.sessions)
	next[i].Name = name
	return s.commit(ctx, next)
}

// RenameIfDefault renames a session only while it still carries its generated
// name. It reports whether the name changed.
func (s *SessionStore) RenameIfDefault(ctx context.Context, id int64, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 || !s.sessions[i].HasDefaultName() {
		return false, nil
	}

	next := domain.CloneSessions(s.sessions)
	next[i].Name = name
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// AppendMessage adds a message to the end of a session transcript
func (s *SessionStore) AppendMessage(ctx context.Context, id int64, role domain.MessageRole, content string) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Message{}, domain.ErrNotFound
	}

	msg := domain.Message{Role: role, Content: content, CreatedAt: s.now().UTC()}
	next := domain.CloneSessions(s.sessions)
	next[i].Messages = append(next[i].Messages, msg)
	if err := s.commit(ctx, next); err != nil {
		return domain.Message{}, err
	}

	s.renderer.Append(id, role, content, id == s.activeID)
	return msg, nil
}

// Clear empties the transcript of a session
func (s *SessionStore) Clear(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.ErrNotFound
	}

	next := domain.CloneSessions(s.sessions)
	next[i].Messages = []domain.Message{}
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	s.renderer.Reset(id, nil)
	return nil
}

// Active returns a copy of the active session
func (s *SessionStore) Active() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(s.activeID)
	if i < 0 {
		return domain.Session{}, false
	}
	return s.sessions[i].Clone(), true
}

// ActiveID returns the active session id, or 0 when the store is empty
func (s *SessionStore) ActiveID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Get returns a copy of the session with id
func (s *SessionStore) Get(id int64) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Session{}, domain.ErrNotFound
	}
	return s.sessions[i].Clone(), nil
}

// List returns a copy of all sessions in store order
func (s *SessionStore) List() []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneSessions(s.sessions)
}

// commit writes next through the repository and swaps it in on success.
// Callers hold s.mu.
func (s *SessionStore) commit(ctx context.Context, next []domain.Session) error {
	if err := s.repo.Save(ctx, next); err != nil {
		log.Error().Err(err).Msg("failed to persist sessions")
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	s.sessions = next
	return nil
}

func (s *SessionStore) indexOf(id int64) int {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}
