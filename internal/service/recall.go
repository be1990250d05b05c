package service

import "sync"

// pastEnd marks a cursor with no selection
const pastEnd = -1

// InputRecall walks back and forth over the user messages of the active session.
// The list is recomputed from the store on every call; only the cursor is kept.
type InputRecall struct {
	mu        sync.Mutex
	store     *SessionStore
	cursor    int
	sessionID int64
}

// NewInputRecall creates a recall buffer over store
func NewInputRecall(store *SessionStore) *InputRecall {
	return &InputRecall{store: store, cursor: pastEnd}
}

// Previous moves one entry back. The first call selects the most recent input;
// at the oldest input the cursor stays put. ok is false when there is nothing to recall.
func (r *InputRecall) Previous() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inputs := r.inputs()
	if len(inputs) == 0 {
		return "", false
	}

	switch {
	case r.cursor == pastEnd:
		r.cursor = len(inputs) - 1
	case r.cursor > 0:
		r.cursor--
	}
	return inputs[r.cursor], true
}

// Next moves one entry forward. Moving past the newest input resets the cursor
// and returns "" so the caller clears its input field.
func (r *InputRecall) Next() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inputs := r.inputs()
	if len(inputs) == 0 {
		return "", false
	}

	if r.cursor == pastEnd || r.cursor+1 >= len(inputs) {
		r.cursor = pastEnd
		return "", true
	}
	r.cursor++
	return inputs[r.cursor], true
}

// Reset drops the selection so the next Previous starts from the most recent input
func (r *InputRecall) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursor = pastEnd
}

// inputs returns the active session's user messages, resetting the cursor
// when the active session changed or the list shrank under it. Callers hold r.mu.
func (r *InputRecall) inputs() []string {
	sess, ok := r.store.Active()
	if !ok {
		r.cursor = pastEnd
		r.sessionID = 0
		return nil
	}
	if sess.ID != r.sessionID {
		r.sessionID = sess.ID
		r.cursor = pastEnd
	}

	inputs := sess.UserInputs()
	if r.cursor >= len(inputs) {
		r.cursor = pastEnd
	}
	return inputs
}
