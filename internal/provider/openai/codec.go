package openai

import (
	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/engine"
)

// Codec is the chat completions strategy for the engine.
type Codec struct{}

var _ engine.Codec[*ChatRequest, ChatCompletionChunk, *ChatCompletion] = Codec{}

func (Codec) Kind() domain.ProviderKind {
	return domain.KindOpenAI
}

// BuildRequest normalizes the messages and applies the call options.
func (Codec) BuildRequest(req *domain.ChatRequest) (*ChatRequest, error) {
	messages, err := NormalizeMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	opts := req.Options
	wire := &ChatRequest{
		Model:       req.Model,
		Messages:    withSystemInstruction(messages, opts.SystemInstruction),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Extra:       opts.Params,
	}
	if opts.Stream {
		wire.Stream = true
		wire.StreamOptions = &StreamOptions{IncludeUsage: true}
	}
	return wire, nil
}

func (Codec) NewAccumulator(emit engine.Emitter) engine.Accumulator[ChatCompletionChunk, *ChatCompletion] {
	return NewAccumulator(emit)
}

func (Codec) Convert(native *ChatCompletion, rawVerbose bool) (*domain.Response, error) {
	return ToCanonical(native, rawVerbose)
}
