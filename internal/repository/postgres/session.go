package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository implements domain.SessionRepository
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Load(ctx context.Context) ([]domain.Session, error) {
	query := `
		SELECT id, name, created_at
		FROM chat_sessions
		ORDER BY position
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	index := make(map[int64]int)
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.Messages = []domain.Message{}
		index[s.ID] = len(sessions)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	msgQuery := `
		SELECT session_id, role, content, created_at
		FROM chat_messages
		ORDER BY session_id, seq
	`
	msgRows, err := r.pool.Query(ctx, msgQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var sessionID int64
		var role string
		var m domain.Message
		if err := msgRows.Scan(&sessionID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		i, ok := index[sessionID]
		if !ok {
			continue
		}
		if m.Role, err = domain.ParseRole(role); err != nil {
			return nil, fmt.Errorf("session %d: %w", sessionID, err)
		}
		sessions[i].Messages = append(sessions[i].Messages, m)
	}
	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return sessions, nil
}

// Save replaces the stored set in one transaction
func (r *SessionRepository) Save(ctx context.Context, sessions []domain.Session) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM chat_messages`)
	batch.Queue(`DELETE FROM chat_sessions`)
	for pos, s := range sessions {
		batch.Queue(`
			INSERT INTO chat_sessions (id, name, position, created_at)
			VALUES ($1, $2, $3, $4)
		`, s.ID, s.Name, pos, timestamp(s.CreatedAt))
		for seq, m := range s.Messages {
			batch.Queue(`
				INSERT INTO chat_messages (session_id, seq, role, content, created_at)
				VALUES ($1, $2, $3, $4, $5)
			`, s.ID, seq, string(m.Role), m.Content, timestamp(m.CreatedAt))
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit sessions: %w", err)
	}
	return nil
}

func timestamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
