package gemini

import (
	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/engine"
)

// ToCanonical converts a complete response. Only the first candidate is read.
func ToCanonical(native *GenerateContentResponse, rawVerbose bool) (*domain.Response, error) {
	if native == nil {
		return nil, &domain.ConversionError{Provider: string(domain.KindGemini), Reason: "nil response"}
	}

	resp := &domain.Response{
		Role:  domain.RoleAssistant,
		Model: native.ModelVersion,
	}

	if u := native.UsageMetadata; u != nil {
		resp.Usage = &domain.Usage{
			PromptTokens:     u.PromptTokenCount,
			CompletionTokens: u.CandidatesTokenCount,
			TotalTokens:      u.TotalTokenCount,
		}
	}

	if len(native.Candidates) > 0 {
		candidate := native.Candidates[0]
		if candidate.Content != nil && candidate.Content.Role != "" {
			resp.Role = domain.NormalizeRole(domain.Role(candidate.Content.Role))
		}
		resp.Content, resp.Thinking, _ = splitText(candidate.Content)
		resp.FinishReason = candidate.FinishReason
	}

	raw, err := engine.Raw(native, rawVerbose)
	if err != nil {
		return nil, &domain.ConversionError{Provider: string(domain.KindGemini), Reason: err.Error()}
	}
	resp.Raw = raw

	return resp, nil
}
