package domain

import (
	"context"
	"fmt"
	"time"
)

// DefaultSessionNamePrefix is used to build the display name of new sessions
const DefaultSessionNamePrefix = "Chat"

// Session represents one independent conversation thread
type Session struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultSessionName returns the auto-generated name for a session id
func DefaultSessionName(id int64) string {
	return fmt.Sprintf("%s %d", DefaultSessionNamePrefix, id)
}

// HasDefaultName reports whether the session still carries its generated name
func (s *Session) HasDefaultName() bool {
	return s.Name == DefaultSessionName(s.ID)
}

// UserInputs returns the content of user-authored messages in chronological order
func (s *Session) UserInputs() []string {
	var inputs []string
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			inputs = append(inputs, m.Content)
		}
	}
	return inputs
}

// Clone returns a deep copy of the session
func (s Session) Clone() Session {
	out := s
	if s.Messages != nil {
		out.Messages = make([]Message, len(s.Messages))
		copy(out.Messages, s.Messages)
	}
	return out
}

// CloneSessions deep-copies a session set
func CloneSessions(sessions []Session) []Session {
	if sessions == nil {
		return nil
	}
	out := make([]Session, len(sessions))
	for i := range sessions {
		out[i] = sessions[i].Clone()
	}
	return out
}

// SessionRepository persists the whole session set as one unit.
// Load returns nil when nothing has been stored yet.
type SessionRepository interface {
	Load(ctx context.Context) ([]Session, error)
	Save(ctx context.Context, sessions []Session) error
}

// Pinger is implemented by repositories that can report backend reachability
type Pinger interface {
	Ping(ctx context.Context) error
}
