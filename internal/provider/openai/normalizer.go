package openai

import (
	"slices"

	"github.com/davidbz/prism/internal/domain"
)

// NormalizeMessages rewrites canonical messages into chat completions
// messages. Internal metadata is dropped; other extra keys pass through.
func NormalizeMessages(messages []domain.Message) ([]Message, error) {
	if err := domain.ValidateMessages(messages); err != nil {
		return nil, err
	}

	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, Message{
			Role:    string(domain.NormalizeRole(m.Role)),
			Content: m.Text(),
			Extra:   m.Extra(),
		})
	}
	return out, nil
}

// withSystemInstruction puts instruction at the head of the conversation,
// replacing any system message already present.
func withSystemInstruction(messages []Message, instruction string) []Message {
	if instruction == "" {
		return messages
	}

	out := slices.DeleteFunc(slices.Clone(messages), func(m Message) bool {
		return m.Role == string(domain.RoleSystem)
	})
	return slices.Insert(out, 0, Message{Role: string(domain.RoleSystem), Content: instruction})
}
