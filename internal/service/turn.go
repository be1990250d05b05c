package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/Rrens/ollama-chat/internal/llm"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TurnState is the state of the turn orchestrator
type TurnState string

const (
	TurnIdle      TurnState = "idle"
	TurnSending   TurnState = "sending"
	TurnCompleted TurnState = "completed"
	TurnFailed    TurnState = "failed"
)

// titleMaxRunes bounds automatically generated session titles
const titleMaxRunes = 30

// ModelSelector reports the model chosen for the next turn
type ModelSelector interface {
	Selected() string
}

// TurnOptions configure a TurnOrchestrator
type TurnOptions struct {
	SystemPrompt string
	AutoTitle    bool
}

// TurnOutcome is the result of one submitted turn
type TurnOutcome struct {
	RequestID   string          `json:"request_id"`
	SessionID   int64           `json:"session_id"`
	State       TurnState       `json:"state"`
	Model       string          `json:"model"`
	UserMessage domain.Message  `json:"user_message"`
	Reply       *domain.Message `json:"reply,omitempty"`
	Diagnostic  string          `json:"diagnostic,omitempty"`
	TokensUsed  int             `json:"tokens_used,omitempty"`
	LatencyMs   int64           `json:"latency_ms"`
	Err         error           `json:"-"`
}

// Succeeded reports whether the assistant reply was recorded
func (o *TurnOutcome) Succeeded() bool {
	return o.State == TurnCompleted
}

// TurnOrchestrator drives one request/response exchange at a time
type TurnOrchestrator struct {
	store     *SessionStore
	recall    *InputRecall
	models    ModelSelector
	transport llm.Transport
	renderer  domain.Renderer
	opts      TurnOptions

	mu    sync.Mutex
	state TurnState
}

// NewTurnOrchestrator creates a new turn orchestrator
func NewTurnOrchestrator(
	store *SessionStore,
	recall *InputRecall,
	models ModelSelector,
	transport llm.Transport,
	renderer domain.Renderer,
	opts TurnOptions,
) *TurnOrchestrator {
	if renderer == nil {
		renderer = domain.NopRenderer{}
	}
	return &TurnOrchestrator{
		store:     store,
		recall:    recall,
		models:    models,
		transport: transport,
		renderer:  renderer,
		opts:      opts,
		state:     TurnIdle,
	}
}

// State returns the current state
func (o *TurnOrchestrator) State() TurnState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Submit sends input as the next user turn of the active session.
// Guard failures return a *domain.ValidationError and change nothing.
// Transport failures are reported in the outcome, not as an error.
func (o *TurnOrchestrator) Submit(ctx context.Context, input string, opts domain.SamplingOptions) (*TurnOutcome, error) {
	content := strings.TrimSpace(input)
	if content == "" {
		return nil, domain.ErrEmptyInput
	}
	model := o.models.Selected()
	if model == "" {
		return nil, domain.ErrNoModel
	}
	if !o.begin() {
		return nil, domain.ErrTurnBusy
	}
	defer o.finish()

	sess, ok := o.store.Active()
	if !ok {
		return nil, domain.ErrNotFound
	}

	// the reply belongs to this session even if the user switches away meanwhile
	sessionID := sess.ID
	outcome := &TurnOutcome{
		RequestID: uuid.New().String(),
		SessionID: sessionID,
		Model:     model,
	}
	logger := log.With().Str("request_id", outcome.RequestID).Int64("session_id", sessionID).Str("model", model).Logger()

	userMsg, err := o.store.AppendMessage(ctx, sessionID, domain.RoleUser, content)
	if err != nil {
		return nil, err
	}
	outcome.UserMessage = userMsg
	o.recall.Reset()

	if o.opts.AutoTitle && len(sess.UserInputs()) == 0 {
		if _, err := o.store.RenameIfDefault(ctx, sessionID, llm.Title(content, titleMaxRunes)); err != nil {
			logger.Warn().Err(err).Msg("failed to set session title")
		}
	}

	current, err := o.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	messages := llm.BuildMessages(o.opts.SystemPrompt, current.Messages)

	o.renderer.Pending(sessionID, true)
	logger.Info().Int("messages", len(messages)).Msg("Sending turn")

	start := time.Now()
	resp, err := o.transport.Chat(ctx, model, messages, opts)
	outcome.LatencyMs = time.Since(start).Milliseconds()
	o.renderer.Pending(sessionID, false)

	if err != nil {
		logger.Error().Err(err).Int64("latency_ms", outcome.LatencyMs).Msg("Turn failed")
		return o.fail(outcome, err, llm.Diagnose(err, llm.HostOf(o.transport))), nil
	}

	reply, err := o.store.AppendMessage(ctx, sessionID, domain.RoleAssistant, resp.Content)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn().Msg("Session deleted before the reply arrived; reply discarded")
			outcome.State = TurnFailed
			outcome.Err = err
			return outcome, nil
		}
		logger.Error().Err(err).Msg("failed to record reply")
		return o.fail(outcome, err, "Error: "+err.Error()), nil
	}

	outcome.State = TurnCompleted
	outcome.Reply = &reply
	outcome.TokensUsed = resp.TokensUsed
	o.setState(TurnCompleted)

	logger.Info().
		Int("tokens_used", resp.TokensUsed).
		Int64("latency_ms", outcome.LatencyMs).
		Msg("Turn completed")
	return outcome, nil
}

// fail records a failed outcome and shows the diagnostic without persisting it
func (o *TurnOrchestrator) fail(outcome *TurnOutcome, err error, diagnostic string) *TurnOutcome {
	outcome.State = TurnFailed
	outcome.Err = err
	outcome.Diagnostic = diagnostic
	o.setState(TurnFailed)
	if _, err := o.store.Get(outcome.SessionID); err != nil {
		log.Warn().Str("request_id", outcome.RequestID).Int64("session_id", outcome.SessionID).Msg("Session deleted before the failure arrived; diagnostic dropped")
		return outcome
	}
	o.renderer.Append(outcome.SessionID, domain.RoleSystem, diagnostic, outcome.SessionID == o.store.ActiveID())
	return outcome
}

func (o *TurnOrchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != TurnIdle {
		return false
	}
	o.state = TurnSending
	return true
}

func (o *TurnOrchestrator) finish() {
	o.setState(TurnIdle)
}

func (o *TurnOrchestrator) setState(s TurnState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = s
}
