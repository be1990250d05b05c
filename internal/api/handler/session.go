package handler

import (
	"net/http"

	"github.com/Rrens/ollama-chat/internal/api/response"
	"github.com/Rrens/ollama-chat/internal/display"
	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/Rrens/ollama-chat/internal/service"
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	store *service.SessionStore
	feed  *display.Feed
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(store *service.SessionStore, feed *display.Feed) *SessionHandler {
	return &SessionHandler{store: store, feed: feed}
}

type sessionSummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	MessageCount int    `json:"message_count"`
	Active       bool   `json:"active"`
}

// List returns all sessions in store order
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	activeID := h.store.ActiveID()
	sessions := h.store.List()

	out := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionSummary{
			ID:           s.ID,
			Name:         s.Name,
			MessageCount: len(s.Messages),
			Active:       s.ID == activeID,
		})
	}

	response.OK(w, map[string]any{
		"sessions":  out,
		"active_id": activeID,
	})
}

// Create creates a new session and activates it
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.Create(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, session)
}

// Active returns the active session
func (h *SessionHandler) Active(w http.ResponseWriter, r *http.Request) {
	session, ok := h.store.Active()
	if !ok {
		response.NotFound(w, domain.ErrNotFound.Error())
		return
	}
	response.OK(w, session)
}

// Switch activates another session
func (h *SessionHandler) Switch(w http.ResponseWriter, r *http.Request) {
	var input domain.SessionSwitch
	if !decode(w, r, &input) {
		return
	}

	session, err := h.store.SwitchTo(input.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, session)
}

// Rename changes a session's display name
func (h *SessionHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var input domain.SessionRename
	if !decode(w, r, &input) {
		return
	}

	if err := h.store.Rename(r.Context(), id, input.Name); err != nil {
		writeError(w, err)
		return
	}

	session, err := h.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, session)
}

// Delete removes a session
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	h.feed.Forget(id)

	response.OK(w, map[string]any{
		"deleted":   id,
		"active_id": h.store.ActiveID(),
	})
}

// Messages returns the persisted transcript of a session
func (h *SessionHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, session.Messages)
}

// Clear empties a session's transcript
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if err := h.store.Clear(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	response.NoContent(w)
}

// Display returns what is shown for a session, diagnostics included
func (h *SessionHandler) Display(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if _, err := h.store.Get(id); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, h.feed.View(id))
}
