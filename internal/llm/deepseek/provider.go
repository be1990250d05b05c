package deepseek

import (
	"github.com/Rrens/ollama-chat/internal/llm/openai"
)

// BaseURL is the DeepSeek OpenAI-compatible endpoint
const BaseURL = "https://api.deepseek.com/v1"

// NewProvider creates a DeepSeek transport; DeepSeek speaks the OpenAI chat completions protocol
func NewProvider(apiKey string) *openai.Provider {
	return openai.NewProvider(apiKey, BaseURL, openai.WithName("deepseek"))
}
