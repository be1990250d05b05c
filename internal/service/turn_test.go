package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/Rrens/ollama-chat/internal/llm"
	"github.com/Rrens/ollama-chat/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixedModel string

func (m fixedModel) Selected() string { return string(m) }

type turnFixture struct {
	store     *SessionStore
	recall    *InputRecall
	transport *MockTransport
	renderer  *recordingRenderer
	repo      *memory.Store
	turn      *TurnOrchestrator
}

func newTurnFixture(t *testing.T, model string, opts TurnOptions) *turnFixture {
	t.Helper()
	f := &turnFixture{
		transport: new(MockTransport),
		renderer:  &recordingRenderer{},
		repo:      memory.NewStore(),
	}
	f.store = newLoadedStore(t, f.repo, f.renderer)
	_, err := f.store.EnsureSession(context.Background())
	require.NoError(t, err)
	f.recall = NewInputRecall(f.store)
	f.turn = NewTurnOrchestrator(f.store, f.recall, fixedModel(model), f.transport, f.renderer, opts)
	return f
}

var defaultOpts = domain.SamplingOptions{Temperature: 0.7, MaxTokens: 512}

func TestTurn_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("no model selected", func(t *testing.T) {
		f := newTurnFixture(t, "", TurnOptions{})

		out, err := f.turn.Submit(ctx, "hi", defaultOpts)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, domain.ErrNoModel)
		assert.True(t, domain.IsValidation(err))

		sess, _ := f.store.Active()
		assert.Empty(t, sess.Messages)
		f.transport.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, TurnIdle, f.turn.State())
	})

	t.Run("blank input", func(t *testing.T) {
		f := newTurnFixture(t, "llama3", TurnOptions{})

		_, err := f.turn.Submit(ctx, "  \n\t ", defaultOpts)
		assert.ErrorIs(t, err, domain.ErrEmptyInput)

		sess, _ := f.store.Active()
		assert.Empty(t, sess.Messages)
		f.transport.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTurn_Success(t *testing.T) {
	ctx := context.Background()
	f := newTurnFixture(t, "llama3", TurnOptions{})

	f.transport.On("Chat", ctx, "llama3", mock.MatchedBy(func(msgs []domain.Message) bool {
		return len(msgs) == 1 && msgs[0].Role == domain.RoleUser && msgs[0].Content == "hi"
	}), defaultOpts).Return(&llm.Response{Content: "hello there", TokensUsed: 12}, nil)

	out, err := f.turn.Submit(ctx, "  hi  ", defaultOpts)
	require.NoError(t, err)

	assert.True(t, out.Succeeded())
	assert.Equal(t, TurnCompleted, out.State)
	assert.NotEmpty(t, out.RequestID)
	assert.Equal(t, "hello there", out.Reply.Content)
	assert.Equal(t, 12, out.TokensUsed)
	assert.Equal(t, TurnIdle, f.turn.State())

	sess, _ := f.store.Active()
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, domain.Message{Role: domain.RoleUser, Content: "hi"}, stripTime(sess.Messages[0]))
	assert.Equal(t, domain.Message{Role: domain.RoleAssistant, Content: "hello there"}, stripTime(sess.Messages[1]))

	stored, err := f.repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, stored[0].Messages, 2)

	assert.Equal(t, []bool{true, false}, f.renderer.pending)
	f.transport.AssertExpectations(t)
}

func TestTurn_TransportFailure(t *testing.T) {
	ctx := context.Background()
	f := newTurnFixture(t, "llama3", TurnOptions{})

	f.transport.On("Chat", ctx, "llama3", mock.Anything, defaultOpts).
		Return(nil, llm.RequestError("ollama", errors.New("dial tcp 127.0.0.1:11434: connect: connection refused")))

	out, err := f.turn.Submit(ctx, "hi", defaultOpts)
	require.NoError(t, err)

	assert.Equal(t, TurnFailed, out.State)
	assert.Nil(t, out.Reply)
	assert.Equal(t, llm.KindConnectivity, llm.Classify(out.Err).Kind)
	assert.True(t, strings.HasPrefix(out.Diagnostic, "Error: "))
	assert.Contains(t, out.Diagnostic, "Connection refused")

	// user turn stays, no assistant message, diagnostic is display only
	sess, _ := f.store.Active()
	require.Len(t, sess.Messages, 1)
	assert.Equal(t, "hi", sess.Messages[0].Content)

	stored, err := f.repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored[0].Messages, 1)

	last := f.renderer.last()
	assert.Equal(t, domain.RoleSystem, last.Role)
	assert.Equal(t, out.Diagnostic, last.Content)
	assert.Equal(t, TurnIdle, f.turn.State())
}

func TestTurn_RejectsSubmitWhileSending(t *testing.T) {
	ctx := context.Background()
	f := newTurnFixture(t, "llama3", TurnOptions{})

	started := make(chan struct{})
	release := make(chan struct{})
	f.transport.On("Chat", ctx, "llama3", mock.Anything, defaultOpts).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&llm.Response{Content: "first reply"}, nil).Once()

	done := make(chan *TurnOutcome)
	go func() {
		out, _ := f.turn.Submit(ctx, "first", defaultOpts)
		done <- out
	}()

	<-started
	assert.Equal(t, TurnSending, f.turn.State())
	_, err := f.turn.Submit(ctx, "second", defaultOpts)
	assert.ErrorIs(t, err, domain.ErrTurnBusy)

	close(release)
	out := <-done
	require.NotNil(t, out)
	assert.True(t, out.Succeeded())

	sess, _ := f.store.Active()
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "first", sess.Messages[0].Content)
	assert.Equal(t, "first reply", sess.Messages[1].Content)
}

func TestTurn_ReplyAttributedToOriginatingSession(t *testing.T) {
	ctx := context.Background()
	f := newTurnFixture(t, "llama3", TurnOptions{})
	_, err := f.store.Create(ctx)
	require.NoError(t, err)
	_, err = f.store.SwitchTo(1)
	require.NoError(t, err)

	f.transport.On("Chat", ctx, "llama3", mock.Anything, defaultOpts).
		Run(func(mock.Arguments) {
			_, err := f.store.SwitchTo(2)
			require.NoError(t, err)
		}).
		Return(&llm.Response{Content: "for session one"}, nil)

	out, err := f.turn.Submit(ctx, "hi", defaultOpts)
	require.NoError(t, err)
	assert.True(t, out.Succeeded())
	assert.Equal(t, int64(1), out.SessionID)

	one, _ := f.store.Get(1)
	two, _ := f.store.Get(2)
	assert.Len(t, one.Messages, 2)
	assert.Empty(t, two.Messages)
}

func TestTurn_SessionDeletedWhileSending(t *testing.T) {
	ctx := context.Background()
	f := newTurnFixture(t, "llama3", TurnOptions{})
	_, err := f.store.Create(ctx)
	require.NoError(t, err)
	_, err = f.store.SwitchTo(1)
	require.NoError(t, err)

	f.transport.On("Chat", ctx, "llama3", mock.Anything, defaultOpts).
		Run(func(mock.Arguments) {
			require.NoError(t, f.store.Delete(ctx, 1))
		}).
		Return(&llm.Response{Content: "orphan"}, nil)

	out, err := f.turn.Submit(ctx, "hi", defaultOpts)
	require.NoError(t, err)
	assert.Equal(t, TurnFailed, out.State)
	assert.ErrorIs(t, out.Err, domain.ErrNotFound)

	remaining := f.store.List()
	require.Len(t, remaining, 1)
	assert.Equal(t, int64(2), remaining[0].ID)
	assert.Empty(t, remaining[0].Messages)
	assert.Equal(t, TurnIdle, f.turn.State())
}

func TestTurn_FailureAfterSessionDeletedIsNotDisplayed(t *testing.T) {
	ctx := context.Background()
	f := newTurnFixture(t, "llama3", TurnOptions{})
	_, err := f.store.Create(ctx)
	require.NoError(t, err)
	_, err = f.store.SwitchTo(1)
	require.NoError(t, err)

	f.transport.On("Chat", ctx, "llama3", mock.Anything, defaultOpts).
		Run(func(mock.Arguments) {
			require.NoError(t, f.store.Delete(ctx, 1))
		}).
		Return(nil, llm.StatusError("ollama", 500, []byte("boom")))

	out, err := f.turn.Submit(ctx, "hi", defaultOpts)
	require.NoError(t, err)
	assert.Equal(t, TurnFailed, out.State)
	assert.NotEmpty(t, out.Diagnostic)

	for _, r := range f.renderer.appended {
		assert.NotEqual(t, domain.RoleSystem, r.Role, "no diagnostic for a deleted session")
	}
	assert.Equal(t, TurnIdle, f.turn.State())
}

func TestTurn_SendsFullTranscriptWithSystemPrompt(t *testing.T) {
	ctx := context.Background()
	f := newTurnFixture(t, "llama3", TurnOptions{SystemPrompt: "Be brief."})
	appendAll(t, f.store, 1,
		domain.Message{Role: domain.RoleUser, Content: "first"},
		domain.Message{Role: domain.RoleAssistant, Content: "ok"},
	)

	var sent []domain.Message
	f.transport.On("Chat", ctx, "llama3", mock.Anything, defaultOpts).
		Run(func(args mock.Arguments) {
			sent = args.Get(2).([]domain.Message)
		}).
		Return(&llm.Response{Content: "done"}, nil)

	_, err := f.turn.Submit(ctx, "second", defaultOpts)
	require.NoError(t, err)

	require.Len(t, sent, 4)
	assert.Equal(t, domain.RoleSystem, sent[0].Role)
	assert.Equal(t, "Be brief.", sent[0].Content)
	assert.Equal(t, "first", sent[1].Content)
	assert.Equal(t, "ok", sent[2].Content)
	assert.Equal(t, "second", sent[3].Content)
}

func TestTurn_ResetsRecall(t *testing.T) {
	ctx := context.Background()
	f := newTurnFixture(t, "llama3", TurnOptions{})
	appendAll(t, f.store, 1,
		domain.Message{Role: domain.RoleUser, Content: "a"},
		domain.Message{Role: domain.RoleUser, Content: "b"},
	)
	f.recall.Previous()
	f.recall.Previous()

	f.transport.On("Chat", ctx, "llama3", mock.Anything, defaultOpts).Return(&llm.Response{Content: "r"}, nil)
	_, err := f.turn.Submit(ctx, "c", defaultOpts)
	require.NoError(t, err)

	got, _ := f.recall.Previous()
	assert.Equal(t, "c", got)
}

func TestTurn_AutoTitle(t *testing.T) {
	ctx := context.Background()
	f := newTurnFixture(t, "llama3", TurnOptions{AutoTitle: true})
	f.transport.On("Chat", ctx, "llama3", mock.Anything, defaultOpts).Return(&llm.Response{Content: "r"}, nil)

	_, err := f.turn.Submit(ctx, "How do I configure OLLAMA_ORIGINS for my browser?", defaultOpts)
	require.NoError(t, err)
	sess, _ := f.store.Active()
	assert.Equal(t, "How do I configure OLLAMA_ORIG...", sess.Name)

	_, err = f.turn.Submit(ctx, "second question", defaultOpts)
	require.NoError(t, err)
	sess, _ = f.store.Active()
	assert.Equal(t, "How do I configure OLLAMA_ORIG...", sess.Name)
}

func TestTurn_AutoTitleKeepsCustomName(t *testing.T) {
	ctx := context.Background()
	f := newTurnFixture(t, "llama3", TurnOptions{AutoTitle: true})
	require.NoError(t, f.store.Rename(ctx, 1, "mine"))
	f.transport.On("Chat", ctx, "llama3", mock.Anything, defaultOpts).Return(&llm.Response{Content: "r"}, nil)

	_, err := f.turn.Submit(ctx, "hello", defaultOpts)
	require.NoError(t, err)
	sess, _ := f.store.Active()
	assert.Equal(t, "mine", sess.Name)
}

func stripTime(m domain.Message) domain.Message {
	return domain.Message{Role: m.Role, Content: m.Content}
}
