// Package echo provides a testing provider that echoes back input messages.
// It speaks the chat completions shape in memory, without making external API
// calls, providing deterministic responses for testing and development purposes.
package echo

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davidbz/prism/internal/engine"
	"github.com/davidbz/prism/internal/observability"
	"github.com/davidbz/prism/internal/provider/catalog"
	"github.com/davidbz/prism/internal/provider/openai"
)

const (
	providerName = "echo"
	modelName    = "echo4"
	chunkDelay   = 10 * time.Millisecond
)

type (
	chunkResult = engine.Result[openai.ChatCompletionChunk]
	chunkChan   = engine.Chunks[openai.ChatCompletionChunk]
)

// Transport produces echo responses. It implements both the blocking and the
// non-blocking transport views.
type Transport struct {
	delay time.Duration
}

// NewTransport creates a transport that waits delay between stream chunks.
func NewTransport(delay time.Duration) *Transport {
	return &Transport{delay: delay}
}

// NewProvider creates a new echo provider.
// No configuration is required as this provider operates entirely in-memory.
func NewProvider(opts ...engine.Option) *openai.Provider {
	return openai.NewProviderWithTransport(providerName, NewTransport(chunkDelay), catalog.New([]string{modelName}), opts...)
}

// Complete returns the echoed messages as one completion.
func (t *Transport) Complete(ctx context.Context, req *openai.ChatRequest) (*openai.ChatCompletion, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	logger := observability.FromContext(ctx)
	logger.Debug("echoing request")

	content := buildEchoContent(req.Messages)
	usage := usageFor(content)

	logger.Debug("echo completed",
		observability.Int("prompt_tokens", usage.PromptTokens),
		observability.Int("completion_tokens", usage.CompletionTokens),
	)

	return &openai.ChatCompletion{
		ID:      responseID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []openai.Choice{{
			Message:      openai.AssistantMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
		Usage: usage,
	}, nil
}

// Stream returns the echoed messages word by word.
func (t *Transport) Stream(ctx context.Context, req *openai.ChatRequest) (engine.ChunkStream[openai.ChatCompletionChunk], error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Debug("streaming echo request")

	return engine.NewSeqStream(func(yield func(openai.ChatCompletionChunk, error) bool) {
		for chunk := range t.chunks(req) {
			select {
			case <-ctx.Done():
				yield(openai.ChatCompletionChunk{}, ctx.Err())
				return
			case <-time.After(t.delay):
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}), nil
}

func (t *Transport) CompleteAsync(ctx context.Context, req *openai.ChatRequest) <-chan engine.Result[*openai.ChatCompletion] {
	out := make(chan engine.Result[*openai.ChatCompletion], 1)
	go func() {
		native, err := t.Complete(ctx, req)
		out <- engine.Result[*openai.ChatCompletion]{Value: native, Err: err}
	}()
	return out
}

// StreamAsync delivers the same chunks as Stream from a goroutine.
func (t *Transport) StreamAsync(ctx context.Context, req *openai.ChatRequest) <-chan engine.Result[chunkChan] {
	opened := make(chan engine.Result[chunkChan], 1)
	if err := validate(req); err != nil {
		opened <- engine.Result[chunkChan]{Err: err}
		return opened
	}

	observability.FromContext(ctx).Debug("streaming echo request")

	out := make(chan chunkResult)
	opened <- engine.Result[chunkChan]{Value: out}

	go func() {
		defer close(out)

		for chunk := range t.chunks(req) {
			select {
			case <-ctx.Done():
				return
			case out <- chunkResult{Value: chunk}:
				time.Sleep(t.delay)
			}
		}
	}()

	return opened
}

// chunks yields one chunk per word followed by a final chunk carrying the
// finish reason and usage.
func (t *Transport) chunks(req *openai.ChatRequest) iter.Seq[openai.ChatCompletionChunk] {
	content := buildEchoContent(req.Messages)
	id := responseID()
	created := time.Now().Unix()

	chunk := func(delta openai.Delta) openai.ChatCompletionChunk {
		return openai.ChatCompletionChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   req.Model,
			Choices: []openai.ChunkChoice{{Delta: delta}},
		}
	}

	return func(yield func(openai.ChatCompletionChunk) bool) {
		// Split content into words for streaming
		words := strings.Fields(content)
		for i, word := range words {
			delta := openai.Delta{Content: word}
			if i == 0 {
				delta.Role = "assistant"
			}
			if i < len(words)-1 {
				delta.Content += " " // Add space between words
			}
			if !yield(chunk(delta)) {
				return
			}
		}

		stop := "stop"
		final := chunk(openai.Delta{})
		final.Choices[0].FinishReason = &stop
		final.Usage = usageFor(content)
		yield(final)
	}
}

func validate(req *openai.ChatRequest) error {
	if req == nil {
		return errors.New("request cannot be nil")
	}
	if req.Model != modelName {
		return fmt.Errorf("model %s is not supported by echo provider", req.Model)
	}
	return nil
}

func responseID() string {
	return "chatcmpl-echo-" + uuid.NewString()
}

// buildEchoContent constructs the echo response from request messages.
func buildEchoContent(messages []openai.Message) string {
	if len(messages) == 0 {
		return ""
	}

	var builder strings.Builder
	for _, msg := range messages {
		builder.WriteString(fmt.Sprintf("[%s]: %s\n", msg.Role, msg.Content))
	}
	return builder.String()
}

// usageFor counts words; the echo returns as many tokens as it received.
func usageFor(content string) *openai.Usage {
	tokens := countTokens(content)
	return &openai.Usage{
		PromptTokens:     tokens,
		CompletionTokens: tokens,
		TotalTokens:      tokens * 2,
	}
}

// countTokens performs simple word-based token counting.
func countTokens(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Fields(content))
}
