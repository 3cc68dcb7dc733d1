package anthropic

import (
	"strings"

	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/engine"
)

// ToCanonical converts a complete message. Total tokens are input plus output.
func ToCanonical(native *MessageResponse, rawVerbose bool) (*domain.Response, error) {
	if native == nil {
		return nil, &domain.ConversionError{Provider: string(domain.KindAnthropic), Reason: "nil response"}
	}

	resp := &domain.Response{
		Role:         domain.RoleAssistant,
		Model:        native.Model,
		FinishReason: native.StopReason,
	}
	if native.Role != "" {
		resp.Role = domain.NormalizeRole(domain.Role(native.Role))
	}

	var content, thinking strings.Builder
	for _, block := range native.Content {
		switch block.Type {
		case BlockText:
			content.WriteString(block.Text)
		case BlockThinking:
			thinking.WriteString(block.Thinking)
		}
	}
	resp.Content = content.String()
	resp.Thinking = thinking.String()

	if u := native.Usage; u != nil {
		resp.Usage = &domain.Usage{
			PromptTokens:     u.InputTokens,
			CompletionTokens: u.OutputTokens,
			TotalTokens:      u.InputTokens + u.OutputTokens,
		}
	}

	raw, err := engine.Raw(native, rawVerbose)
	if err != nil {
		return nil, &domain.ConversionError{Provider: string(domain.KindAnthropic), Reason: err.Error()}
	}
	resp.Raw = raw

	return resp, nil
}
