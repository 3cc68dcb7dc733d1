package gemini

import (
	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/engine"
)

// DefaultThinkingBudget lets the model decide how much to think.
const DefaultThinkingBudget = -1

// Codec is the generateContent strategy for the engine.
type Codec struct {
	ThinkingBudget int
}

var _ engine.Codec[*GenerateContentRequest, GenerateContentResponse, *GenerateContentResponse] = Codec{}

func (Codec) Kind() domain.ProviderKind {
	return domain.KindGemini
}

// BuildRequest normalizes the messages and applies the call options. Thoughts
// are always requested so reasoning can be surfaced.
func (c Codec) BuildRequest(req *domain.ChatRequest) (*GenerateContentRequest, error) {
	contents, system, err := NormalizeMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	opts := req.Options
	if opts.SystemInstruction != "" {
		system = textContent(opts.SystemInstruction)
	}

	budget := c.ThinkingBudget
	if opts.ThinkingBudget != nil {
		budget = *opts.ThinkingBudget
	}

	return &GenerateContentRequest{
		Model:             req.Model,
		Contents:          contents,
		SystemInstruction: system,
		GenerationConfig: &GenerationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxTokens,
			ThinkingConfig: &ThinkingConfig{
				IncludeThoughts: true,
				ThinkingBudget:  budget,
			},
		},
		Extra: opts.Params,
	}, nil
}

func (Codec) NewAccumulator(emit engine.Emitter) engine.Accumulator[GenerateContentResponse, *GenerateContentResponse] {
	return NewAccumulator(emit)
}

func (Codec) Convert(native *GenerateContentResponse, rawVerbose bool) (*domain.Response, error) {
	return ToCanonical(native, rawVerbose)
}
