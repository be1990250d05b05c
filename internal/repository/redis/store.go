package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/redis/go-redis/v9"
)

const sessionsKey = "chat:sessions"

// SessionStore persists the session set as a single JSON value
type SessionStore struct {
	client *Client
	key    string
}

// NewSessionStore creates a session store on client
func NewSessionStore(client *Client) *SessionStore {
	return &SessionStore{client: client, key: sessionsKey}
}

func (s *SessionStore) Load(ctx context.Context) ([]domain.Session, error) {
	data, err := s.client.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	var sessions []domain.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sessions: %w", err)
	}
	for i, sess := range sessions {
		if sess.Messages == nil {
			sessions[i].Messages = []domain.Message{}
		}
		for _, m := range sess.Messages {
			if !m.Role.Valid() {
				return nil, fmt.Errorf("session %d: unknown message role %q", sess.ID, m.Role)
			}
		}
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return sessions, nil
}

func (s *SessionStore) Save(ctx context.Context, sessions []domain.Session) error {
	if sessions == nil {
		sessions = []domain.Session{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	if err := s.client.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *SessionStore) Close() error {
	return s.client.Close()
}
