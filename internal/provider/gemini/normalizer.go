package gemini

import (
	"strings"

	"github.com/davidbz/prism/internal/domain"
)

const roleModel = string(domain.RoleModel)

// NormalizeMessages restructures canonical messages into contents. Messages
// that already carry parts keep them unchanged. System messages are lifted out
// into the returned system instruction since contents only hold user and model
// turns.
func NormalizeMessages(messages []domain.Message) ([]Content, *Content, error) {
	if err := domain.ValidateMessages(messages); err != nil {
		return nil, nil, err
	}

	contents := make([]Content, 0, len(messages))
	var system []string

	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Text())
			continue
		}

		role := string(m.Role)
		if m.Role == domain.RoleAssistant {
			role = roleModel
		}

		contents = append(contents, Content{Role: role, Parts: toParts(m)})
	}

	if len(system) == 0 {
		return contents, nil, nil
	}
	return contents, textContent(strings.Join(system, "\n\n")), nil
}

// MessagesFromContents converts contents back into canonical messages.
// Thought parts are not part of the canonical text.
func MessagesFromContents(contents []Content) []domain.Message {
	messages := make([]domain.Message, 0, len(contents))
	for _, c := range contents {
		answer, _, _ := splitText(&c)
		messages = append(messages, domain.Message{
			Role:    domain.NormalizeRole(domain.Role(c.Role)),
			Content: answer,
		})
	}
	return messages
}

func toParts(m domain.Message) []Part {
	if len(m.Parts) == 0 {
		return []Part{{Text: m.Content}}
	}

	parts := make([]Part, 0, len(m.Parts))
	for _, p := range m.Parts {
		parts = append(parts, Part{Text: p.Text, Thought: p.Thought})
	}
	return parts
}

func textContent(text string) *Content {
	return &Content{Parts: []Part{{Text: text}}}
}
