package anthropic

import (
	"strings"

	"github.com/davidbz/prism/internal/domain"
)

// NormalizeMessages strips internal metadata. The Messages API has no system
// role, so system messages are returned separately as the system parameter.
func NormalizeMessages(messages []domain.Message) ([]Message, string, error) {
	if err := domain.ValidateMessages(messages); err != nil {
		return nil, "", err
	}

	out := make([]Message, 0, len(messages))
	var system []string

	for _, m := range messages {
		role := domain.NormalizeRole(m.Role)
		if role == domain.RoleSystem {
			system = append(system, m.Text())
			continue
		}
		out = append(out, Message{
			Role:    string(role),
			Content: m.Text(),
			Extra:   m.Extra(),
		})
	}

	return out, strings.Join(system, "\n\n"), nil
}
