package llm

import (
	"strings"

	"github.com/Rrens/ollama-chat/internal/domain"
)

// BuildMessages prepares a transcript for the wire: blank messages are dropped
// and systemPrompt is prepended unless the transcript already opens with a system message.
func BuildMessages(systemPrompt string, messages []domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(messages)+1)

	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt != "" && (len(messages) == 0 || messages[0].Role != domain.RoleSystem) {
		out = append(out, domain.Message{Role: domain.RoleSystem, Content: systemPrompt})
	}

	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SplitSystem separates leading and interleaved system messages from the conversation,
// for backends that take the system prompt as a separate field.
func SplitSystem(messages []domain.Message) (string, []domain.Message) {
	var system []string
	rest := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

// Title derives a session title from the first user message
func Title(question string, maxRunes int) string {
	question = strings.Join(strings.Fields(question), " ")
	runes := []rune(question)
	if len(runes) > maxRunes {
		return string(runes[:maxRunes]) + "..."
	}
	return question
}
