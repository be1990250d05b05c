package domain

import (
	"fmt"
	"time"
)

// MessageRole represents the author of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Valid reports whether r is one of the known roles
func (r MessageRole) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ParseRole converts a stored role string into a MessageRole
func ParseRole(s string) (MessageRole, error) {
	r := MessageRole(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown message role %q", s)
	}
	return r, nil
}

// Message is one entry of a session transcript
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// Renderer presents messages to the user. It returns nothing the core depends on.
type Renderer interface {
	// Append shows one new message of a session
	Append(sessionID int64, role MessageRole, content string, autoscroll bool)
	// Reset replaces everything displayed for a session with messages
	Reset(sessionID int64, messages []Message)
	// Pending toggles the "waiting for reply" indicator
	Pending(sessionID int64, on bool)
}

// NopRenderer discards everything
type NopRenderer struct{}

func (NopRenderer) Append(int64, MessageRole, string, bool) {}
func (NopRenderer) Reset(int64, []Message)                  {}
func (NopRenderer) Pending(int64, bool)                     {}
