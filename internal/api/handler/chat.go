package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Rrens/ollama-chat/internal/api/response"
	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/Rrens/ollama-chat/internal/service"
)

// ChatHandler handles turn submission and input recall
type ChatHandler struct {
	turn     *service.TurnOrchestrator
	recall   *service.InputRecall
	defaults domain.SamplingOptions
}

// NewChatHandler creates a new chat handler
func NewChatHandler(turn *service.TurnOrchestrator, recall *service.InputRecall, defaults domain.SamplingOptions) *ChatHandler {
	return &ChatHandler{turn: turn, recall: recall, defaults: defaults}
}

// Submit sends one user turn to the active session
func (h *ChatHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input domain.ChatRequest
	if !decode(w, r, &input) {
		return
	}

	opts, err := input.Options(h.defaults)
	if err != nil {
		writeError(w, err)
		return
	}

	// a client that goes away must not abandon the turn half way
	ctx := context.WithoutCancel(r.Context())

	outcome, err := h.turn.Submit(ctx, input.Content, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	switch {
	case outcome.Succeeded():
		response.OK(w, outcome)
	case errors.Is(outcome.Err, domain.ErrNotFound):
		response.JSON(w, http.StatusConflict, outcome)
	default:
		response.JSON(w, http.StatusBadGateway, outcome)
	}
}

type recallResult struct {
	Text  string `json:"text"`
	Found bool   `json:"found"`
}

// RecallPrevious returns the previous user input of the active session
func (h *ChatHandler) RecallPrevious(w http.ResponseWriter, r *http.Request) {
	text, ok := h.recall.Previous()
	response.OK(w, recallResult{Text: text, Found: ok})
}

// RecallNext returns the next user input; an empty text means clear the field
func (h *ChatHandler) RecallNext(w http.ResponseWriter, r *http.Request) {
	text, ok := h.recall.Next()
	response.OK(w, recallResult{Text: text, Found: ok})
}
