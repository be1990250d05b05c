package llm

import (
	"context"

	"github.com/Rrens/ollama-chat/internal/domain"
)

// Response contains the result of one chat call
type Response struct {
	Content    string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Transport defines the interface for inference backends
type Transport interface {
	// Name returns the provider identifier
	Name() string

	// IsConfigured checks if the provider has what it needs to make calls
	IsConfigured() bool

	// ListModels returns the models the backend currently serves
	ListModels(ctx context.Context) ([]domain.Model, error)

	// Chat sends the full transcript and returns the assistant reply
	Chat(ctx context.Context, model string, messages []domain.Message, opts domain.SamplingOptions) (*Response, error)
}

// ModelInspector is implemented by transports that can describe installed
// and loaded models
type ModelInspector interface {
	ShowModel(ctx context.Context, name string) (*domain.ModelDetails, error)
	RunningModels(ctx context.Context) ([]domain.RunningModel, error)
}

// HostOf returns the endpoint address of t when it exposes one
func HostOf(t Transport) string {
	if h, ok := t.(interface{ Host() string }); ok {
		return h.Host()
	}
	return ""
}
