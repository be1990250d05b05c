package display

import (
	"sync"
	"time"

	"github.com/Rrens/ollama-chat/internal/domain"
)

// Entry is one displayed message
type Entry struct {
	Role       domain.MessageRole `json:"role"`
	Content    string             `json:"content"`
	Autoscroll bool               `json:"autoscroll"`
	At         time.Time          `json:"at"`
}

// View is what a client renders for a session
type View struct {
	SessionID int64   `json:"session_id"`
	Entries   []Entry `json:"entries"`
	Pending   bool    `json:"pending"`
	Revision  uint64  `json:"revision"`
}

type sessionView struct {
	entries  []Entry
	pending  bool
	revision uint64
}

// Feed is an in-memory displayed transcript per session. It holds display-only
// entries (diagnostics) that never reach persistence.
type Feed struct {
	mu    sync.RWMutex
	views map[int64]*sessionView
	now   func() time.Time
}

// NewFeed creates an empty feed
func NewFeed() *Feed {
	return &Feed{
		views: make(map[int64]*sessionView),
		now:   time.Now,
	}
}

func (f *Feed) view(sessionID int64) *sessionView {
	v, ok := f.views[sessionID]
	if !ok {
		v = &sessionView{}
		f.views[sessionID] = v
	}
	return v
}

// Append adds one entry to a session's display
func (f *Feed) Append(sessionID int64, role domain.MessageRole, content string, autoscroll bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := f.view(sessionID)
	v.entries = append(v.entries, Entry{Role: role, Content: content, Autoscroll: autoscroll, At: f.now().UTC()})
	v.revision++
}

// Reset replaces a session's display with its stored messages
func (f *Feed) Reset(sessionID int64, messages []domain.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := f.view(sessionID)
	v.entries = make([]Entry, 0, len(messages))
	for _, m := range messages {
		v.entries = append(v.entries, Entry{Role: m.Role, Content: m.Content, At: m.CreatedAt})
	}
	v.revision++
}

// Pending toggles the waiting indicator of a session
func (f *Feed) Pending(sessionID int64, on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := f.view(sessionID)
	v.pending = on
	v.revision++
}

// View returns a copy of what is displayed for a session
func (f *Feed) View(sessionID int64) View {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := View{SessionID: sessionID, Entries: []Entry{}}
	v, ok := f.views[sessionID]
	if !ok {
		return out
	}
	out.Entries = append(out.Entries, v.entries...)
	out.Pending = v.pending
	out.Revision = v.revision
	return out
}

// Forget drops the display of a session
func (f *Feed) Forget(sessionID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.views, sessionID)
}
