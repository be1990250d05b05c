package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/Rrens/ollama-chat/internal/llm"
)

const name = "ollama"

// Provider implements llm.Transport for an Ollama server
type Provider struct {
	host   string
	client *http.Client
}

// NewProvider creates a new Ollama provider
func NewProvider(host string, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Provider{
		host:   strings.TrimRight(host, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return name
}

// Host returns the server address
func (p *Provider) Host() string {
	return p.host
}

// IsConfigured checks if the provider has a server address
func (p *Provider) IsConfigured() bool {
	return p.host != ""
}

type tagsResponse struct {
	Models []struct {
		Name       string    `json:"name"`
		ModifiedAt time.Time `json:"modified_at"`
		Size       int64     `json:"size"`
		Details    struct {
			Family            string `json:"family"`
			ParameterSize     string `json:"parameter_size"`
			QuantizationLevel string `json:"quantization_level"`
		} `json:"details"`
	} `json:"models"`
}

// ListModels returns the locally installed models
func (p *Provider) ListModels(ctx context.Context) ([]domain.Model, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.host+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, llm.RequestError(name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, llm.StatusError(name, resp.StatusCode, body)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	models := make([]domain.Model, 0, len(tags.Models))
	for _, m := range tags.Models {
		models = append(models, domain.Model{
			Name:          m.Name,
			Size:          m.Size,
			Family:        m.Details.Family,
			ParameterSize: m.Details.ParameterSize,
			Quantization:  m.Details.QuantizationLevel,
			ModifiedAt:    m.ModifiedAt,
		})
	}
	return models, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

// Chat sends the transcript to /api/chat without streaming
func (p *Provider) Chat(ctx context.Context, model string, messages []domain.Message, opts domain.SamplingOptions) (*llm.Response, error) {
	chatReq := chatRequest{
		Model:    model,
		Messages: make([]chatMessage, len(messages)),
		Stream:   false,
		Options: map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}
	for i, m := range messages {
		chatReq.Messages[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, llm.RequestError(name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, llm.StatusError(name, resp.StatusCode, errBody)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &llm.Response{
		Content:    chatResp.Message.Content,
		Model:      model,
		TokensUsed: chatResp.PromptEvalCount + chatResp.EvalCount,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

type modelDetails struct {
	Format            string   `json:"format"`
	Family            string   `json:"family"`
	Families          []string `json:"families"`
	ParameterSize     string   `json:"parameter_size"`
	QuantizationLevel string   `json:"quantization_level"`
}

type showRequest struct {
	Model string `json:"model"`
}

type showResponse struct {
	License    string       `json:"license"`
	Modelfile  string       `json:"modelfile"`
	Parameters string       `json:"parameters"`
	Template   string       `json:"template"`
	System     string       `json:"system"`
	Details    modelDetails `json:"details"`
	ModifiedAt time.Time    `json:"modified_at"`
}

// ShowModel describes one installed model via /api/show
func (p *Provider) ShowModel(ctx context.Context, model string) (*domain.ModelDetails, error) {
	body, err := json.Marshal(showRequest{Model: model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/show", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, llm.RequestError(name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, llm.StatusError(name, resp.StatusCode, errBody)
	}

	var show showResponse
	if err := json.NewDecoder(resp.Body).Decode(&show); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &domain.ModelDetails{
		Name:          model,
		Format:        show.Details.Format,
		Family:        show.Details.Family,
		Families:      show.Details.Families,
		ParameterSize: show.Details.ParameterSize,
		Quantization:  show.Details.QuantizationLevel,
		License:       show.License,
		Modelfile:     show.Modelfile,
		Parameters:    show.Parameters,
		Template:      show.Template,
		System:        show.System,
		ModifiedAt:    show.ModifiedAt,
	}, nil
}

type psResponse struct {
	Models []struct {
		Name      string       `json:"name"`
		Size      int64        `json:"size"`
		SizeVRAM  int64        `json:"size_vram"`
		ExpiresAt time.Time    `json:"expires_at"`
		Details   modelDetails `json:"details"`
	} `json:"models"`
}

// RunningModels lists the models loaded into memory via /api/ps
func (p *Provider) RunningModels(ctx context.Context) ([]domain.RunningModel, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.host+"/api/ps", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, llm.RequestError(name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, llm.StatusError(name, resp.StatusCode, body)
	}

	var ps psResponse
	if err := json.NewDecoder(resp.Body).Decode(&ps); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	running := make([]domain.RunningModel, 0, len(ps.Models))
	for _, m := range ps.Models {
		running = append(running, domain.RunningModel{
			Name:          m.Name,
			Size:          m.Size,
			SizeVRAM:      m.SizeVRAM,
			Family:        m.Details.Family,
			ParameterSize: m.Details.ParameterSize,
			Quantization:  m.Details.QuantizationLevel,
			ExpiresAt:     m.ExpiresAt,
		})
	}
	return running, nil
}
