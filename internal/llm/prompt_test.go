package llm_test

import (
	"testing"

	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/Rrens/ollama-chat/internal/llm"
	"github.com/stretchr/testify/assert"
)

func TestBuildMessages(t *testing.T) {
	msgs := []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "  "},
		{Role: domain.RoleAssistant, Content: "hello"},
	}

	t.Run("prepends system prompt", func(t *testing.T) {
		got := llm.BuildMessages("be brief", msgs)
		assert.Len(t, got, 3)
		assert.Equal(t, domain.RoleSystem, got[0].Role)
		assert.Equal(t, "be brief", got[0].Content)
		assert.Equal(t, "hello", got[2].Content)
	})

	t.Run("no system prompt", func(t *testing.T) {
		got := llm.BuildMessages("", msgs)
		assert.Len(t, got, 2)
		assert.Equal(t, domain.RoleUser, got[0].Role)
	})

	t.Run("keeps existing system message", func(t *testing.T) {
		withSystem := append([]domain.Message{{Role: domain.RoleSystem, Content: "custom"}}, msgs...)
		got := llm.BuildMessages("be brief", withSystem)
		assert.Equal(t, "custom", got[0].Content)
		assert.Len(t, got, 3)
	})

	t.Run("does not alias input", func(t *testing.T) {
		got := llm.BuildMessages("", msgs)
		got[0].Content = "changed"
		assert.Equal(t, "hi", msgs[0].Content)
	})
}

func TestSplitSystem(t *testing.T) {
	system, rest := llm.SplitSystem([]domain.Message{
		{Role: domain.RoleSystem, Content: "a"},
		{Role: domain.RoleUser, Content: "q"},
		{Role: domain.RoleSystem, Content: "b"},
	})
	assert.Equal(t, "a\n\nb", system)
	assert.Len(t, rest, 1)
	assert.Equal(t, domain.RoleUser, rest[0].Role)
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{"short", "hello there", "hello there"},
		{"collapses whitespace", "  hello \n there ", "hello there"},
		{"truncates", "abcdefghijklmnopqrstuvwxyz0123456789", "abcdefghijklmnopqrstuvwxyz0123..."},
		{"multibyte", "你好你好你好你好你好你好你好你好你好你好你好你好你好你好你好你好", "你好你好你好你好你好你好你好你好你好你好你好你好你好你好你好..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.Title(tt.question, 30))
		})
	}
}
