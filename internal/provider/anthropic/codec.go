package anthropic

import (
	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/engine"
)

const (
	// DefaultMaxTokens is sent when the call sets no limit; the API requires one.
	DefaultMaxTokens = 64000
	// DefaultThinkingBudget enables extended thinking; zero or less disables it.
	DefaultThinkingBudget = 8192
)

// Codec is the Messages API strategy for the engine.
type Codec struct {
	MaxTokens      int
	ThinkingBudget int
}

var _ engine.Codec[*MessagesRequest, StreamEvent, *MessageResponse] = Codec{}

func (Codec) Kind() domain.ProviderKind {
	return domain.KindAnthropic
}

// BuildRequest normalizes the messages and applies the call options.
func (c Codec) BuildRequest(req *domain.ChatRequest) (*MessagesRequest, error) {
	messages, system, err := NormalizeMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	opts := req.Options
	if opts.SystemInstruction != "" {
		system = opts.SystemInstruction
	}

	maxTokens := c.MaxTokens
	if opts.MaxTokens != nil {
		maxTokens = *opts.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	budget := c.ThinkingBudget
	if opts.ThinkingBudget != nil {
		budget = *opts.ThinkingBudget
	}

	wire := &MessagesRequest{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		System:      system,
		Messages:    messages,
		Stream:      opts.Stream,
		Temperature: opts.Temperature,
		Extra:       opts.Params,
	}
	if budget > 0 {
		wire.Thinking = &ThinkingConfig{Type: "enabled", BudgetTokens: budget}
	}
	return wire, nil
}

func (Codec) NewAccumulator(emit engine.Emitter) engine.Accumulator[StreamEvent, *MessageResponse] {
	return NewAccumulator(emit)
}

func (Codec) Convert(native *MessageResponse, rawVerbose bool) (*domain.Response, error) {
	return ToCanonical(native, rawVerbose)
}
