package service

import (
	"context"
	"sync"

	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/Rrens/ollama-chat/internal/llm"
	"github.com/stretchr/testify/mock"
)

// MockTransport mocks the llm.Transport interface
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Name() string {
	return "mock"
}

func (m *MockTransport) IsConfigured() bool {
	return true
}

func (m *MockTransport) ListModels(ctx context.Context) ([]domain.Model, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Model), args.Error(1)
}

func (m *MockTransport) Chat(ctx context.Context, model string, messages []domain.Message, opts domain.SamplingOptions) (*llm.Response, error) {
	args := m.Called(ctx, model, messages, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// MockInspectingTransport adds llm.ModelInspector to MockTransport
type MockInspectingTransport struct {
	MockTransport
}

func (m *MockInspectingTransport) ShowModel(ctx context.Context, name string) (*domain.ModelDetails, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelDetails), args.Error(1)
}

func (m *MockInspectingTransport) RunningModels(ctx context.Context) ([]domain.RunningModel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RunningModel), args.Error(1)
}

// MockSessionRepository mocks the domain.SessionRepository interface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Load(ctx context.Context) ([]domain.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Session), args.Error(1)
}

func (m *MockSessionRepository) Save(ctx context.Context, sessions []domain.Session) error {
	args := m.Called(ctx, sessions)
	return args.Error(0)
}

// MockModelCache mocks the ModelCache interface
type MockModelCache struct {
	mock.Mock
}

func (m *MockModelCache) Get(ctx context.Context, provider string) ([]domain.Model, error) {
	args := m.Called(ctx, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Model), args.Error(1)
}

func (m *MockModelCache) Set(ctx context.Context, provider string, models []domain.Model) error {
	args := m.Called(ctx, provider, models)
	return args.Error(0)
}

func (m *MockModelCache) Invalidate(ctx context.Context, provider string) error {
	args := m.Called(ctx, provider)
	return args.Error(0)
}

type rendered struct {
	SessionID  int64
	Role       domain.MessageRole
	Content    string
	Autoscroll bool
}

// recordingRenderer captures renderer notifications
type recordingRenderer struct {
	mu       sync.Mutex
	appended []rendered
	resets   []int64
	pending  []bool
}

func (r *recordingRenderer) Append(sessionID int64, role domain.MessageRole, content string, autoscroll bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appended = append(r.appended, rendered{sessionID, role, content, autoscroll})
}

func (r *recordingRenderer) Reset(sessionID int64, messages []domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets = append(r.resets, sessionID)
}

func (r *recordingRenderer) Pending(sessionID int64, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, on)
}

func (r *recordingRenderer) last() rendered {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appended[len(r.appended)-1]
}
