package openai

import (
	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/engine"
)

// ToCanonical converts a complete response. Only the first choice is read.
func ToCanonical(native *ChatCompletion, rawVerbose bool) (*domain.Response, error) {
	if native == nil {
		return nil, &domain.ConversionError{Provider: string(domain.KindOpenAI), Reason: "nil response"}
	}

	resp := &domain.Response{
		Role:  domain.RoleAssistant,
		Model: native.Model,
	}

	if native.Usage != nil {
		resp.Usage = &domain.Usage{
			PromptTokens:     native.Usage.PromptTokens,
			CompletionTokens: native.Usage.CompletionTokens,
			TotalTokens:      native.Usage.TotalTokens,
		}
	}

	if len(native.Choices) > 0 {
		choice := native.Choices[0]
		if choice.Message.Role != "" {
			resp.Role = domain.NormalizeRole(domain.Role(choice.Message.Role))
		}
		resp.Content = choice.Message.Content
		resp.Thinking = choice.Message.ReasoningContent
		resp.FinishReason = choice.FinishReason
	}

	raw, err := engine.Raw(native, rawVerbose)
	if err != nil {
		return nil, &domain.ConversionError{Provider: string(domain.KindOpenAI), Reason: err.Error()}
	}
	resp.Raw = raw

	return resp, nil
}
