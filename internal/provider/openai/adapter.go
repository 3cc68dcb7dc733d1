// Package openai speaks the chat completions protocol: requests are sent in
// full, streams arrive as deltas. The official SDK serves api.openai.com and
// a plain HTTP transport serves OpenAI-compatible vendors.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/davidbz/prism/internal/engine"
	"github.com/davidbz/prism/internal/observability"
)

// SDKTransport calls the endpoint through the official SDK. Responses are
// re-decoded from their raw JSON so vendor fields such as reasoning_content
// are kept.
type SDKTransport struct {
	client openai.Client
}

// NewSDKTransport creates a transport from config.
func NewSDKTransport(config Config) (*SDKTransport, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	if config.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}

	return &SDKTransport{
		client: openai.NewClient(opts...),
	}, nil
}

// Complete sends a request and returns the full response.
func (t *SDKTransport) Complete(ctx context.Context, req *ChatRequest) (*ChatCompletion, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI API")

	params, opts := toSDKParams(req)

	resp, err := t.client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		logger.Error("OpenAI API call failed", observability.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	var native ChatCompletion
	if err := json.Unmarshal([]byte(resp.RawJSON()), &native); err != nil {
		return nil, fmt.Errorf("failed to decode OpenAI response: %w", err)
	}

	logger.Debug("OpenAI API call succeeded",
		observability.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		observability.Int("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	return &native, nil
}

// Stream sends a streaming request. The stream opens lazily on the first Next.
func (t *SDKTransport) Stream(ctx context.Context, req *ChatRequest) (engine.ChunkStream[ChatCompletionChunk], error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	observability.FromContext(ctx).Debug("calling OpenAI streaming API")

	params, opts := toSDKParams(req)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	return &sdkStream{stream: t.client.Chat.Completions.NewStreaming(ctx, params, opts...)}, nil
}

type sdkStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
	cur    ChatCompletionChunk
	err    error
}

func (s *sdkStream) Next() bool {
	if s.err != nil || !s.stream.Next() {
		return false
	}

	var chunk ChatCompletionChunk
	if err := json.Unmarshal([]byte(s.stream.Current().RawJSON()), &chunk); err != nil {
		s.err = fmt.Errorf("failed to decode OpenAI chunk: %w", err)
		return false
	}
	s.cur = chunk
	return true
}

func (s *sdkStream) Current() ChatCompletionChunk {
	return s.cur
}

func (s *sdkStream) Err() error {
	if s.err != nil {
		return s.err
	}
	if err := s.stream.Err(); err != nil {
		return fmt.Errorf("OpenAI stream error: %w", err)
	}
	return nil
}

func (s *sdkStream) Close() error {
	return s.stream.Close()
}

// toSDKParams converts the wire request to SDK parameters. Extra body fields
// and extra message keys travel as JSON overrides, as do roles the SDK has no
// constructor for.
func toSDKParams(req *ChatRequest) (openai.ChatCompletionNewParams, []option.RequestOption) {
	var opts []option.RequestOption

	messages := make([]openai.ChatCompletionMessageParamUnion, len(req.Messages))
	for i, msg := range req.Messages {
		switch msg.Role {
		case "user":
			messages[i] = openai.UserMessage(msg.Content)
		case "assistant":
			messages[i] = openai.AssistantMessage(msg.Content)
		case "system":
			messages[i] = openai.SystemMessage(msg.Content)
		case "developer":
			messages[i] = openai.DeveloperMessage(msg.Content)
		case "tool":
			toolCallID, _ := msg.Extra["tool_call_id"].(string)
			messages[i] = openai.ToolMessage(msg.Content, toolCallID)
		default:
			messages[i] = openai.UserMessage(msg.Content)
			opts = append(opts, option.WithJSONSet(messagePath(i, "role"), msg.Role))
		}

		for _, key := range slices.Sorted(maps.Keys(msg.Extra)) {
			opts = append(opts, option.WithJSONSet(messagePath(i, key), msg.Extra[key]))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	if req.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.MaxTokens))
	}

	for _, key := range slices.Sorted(maps.Keys(req.Extra)) {
		opts = append(opts, option.WithJSONSet(key, req.Extra[key]))
	}

	return params, opts
}

// messagePath is the JSON path of a key on the i-th message.
func messagePath(i int, key string) string {
	return fmt.Sprintf("messages.%d.%s", i, strings.ReplaceAll(key, ".", `\.`))
}
