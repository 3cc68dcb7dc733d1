package anthropic

import (
	"fmt"

	"github.com/davidbz/prism/internal/transport"
)

// Block types.
const (
	BlockText     = "text"
	BlockThinking = "thinking"
	BlockToolUse  = "tool_use"
)

// Message is a Messages API conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// Extra carries caller-supplied keys that are not internal metadata.
	Extra map[string]any `json:"-"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	type plain Message
	return transport.MergeExtra(plain(m), m.Extra)
}

// ThinkingConfig enables extended thinking.
type ThinkingConfig struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

// MessagesRequest is the /v1/messages request body.
type MessagesRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Messages    []Message       `json:"messages"`
	Stream      bool            `json:"stream,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	Thinking    *ThinkingConfig `json:"thinking,omitempty"`

	// Extra is merged into the body; it cannot override the fields above.
	Extra map[string]any `json:"-"`
}

func (r MessagesRequest) MarshalJSON() ([]byte, error) {
	type plain MessagesRequest
	return transport.MergeExtra(plain(r), r.Extra)
}

// ContentBlock is one block of a response. PartialJSON keeps tool input that
// could not be parsed even after repair.
type ContentBlock struct {
	Type        string         `json:"type"`
	Text        string         `json:"text,omitempty"`
	Thinking    string         `json:"thinking,omitempty"`
	Signature   string         `json:"signature,omitempty"`
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name,omitempty"`
	Input       map[string]any `json:"input,omitempty"`
	PartialJSON string         `json:"partial_json,omitempty"`
}

type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
}

// merge copies the non-zero counters of other into u.
func (u *Usage) merge(other *Usage) {
	if other == nil {
		return
	}
	if other.InputTokens != 0 {
		u.InputTokens = other.InputTokens
	}
	if other.OutputTokens != 0 {
		u.OutputTokens = other.OutputTokens
	}
	if other.CacheCreationInputTokens != 0 {
		u.CacheCreationInputTokens = other.CacheCreationInputTokens
	}
	if other.CacheReadInputTokens != 0 {
		u.CacheReadInputTokens = other.CacheReadInputTokens
	}
}

// MessageResponse is the native complete response.
type MessageResponse struct {
	ID           string         `json:"id,omitempty"`
	Type         string         `json:"type,omitempty"`
	Role         string         `json:"role,omitempty"`
	Model        string         `json:"model,omitempty"`
	Content      []ContentBlock `json:"content"`
	StopReason   string         `json:"stop_reason,omitempty"`
	StopSequence string         `json:"stop_sequence,omitempty"`
	Usage        *Usage         `json:"usage,omitempty"`
}

// Stream event types.
const (
	EventMessageStart      = "message_start"
	EventContentBlockStart = "content_block_start"
	EventContentBlockDelta = "content_block_delta"
	EventContentBlockStop  = "content_block_stop"
	EventMessageDelta      = "message_delta"
	EventMessageStop       = "message_stop"
	EventPing              = "ping"
	EventError             = "error"
)

// Delta types.
const (
	DeltaText      = "text_delta"
	DeltaThinking  = "thinking_delta"
	DeltaSignature = "signature_delta"
	DeltaInputJSON = "input_json_delta"
)

// EventDelta carries both content block deltas and message deltas.
type EventDelta struct {
	Type         string `json:"type,omitempty"`
	Text         string `json:"text,omitempty"`
	Thinking     string `json:"thinking,omitempty"`
	Signature    string `json:"signature,omitempty"`
	PartialJSON  string `json:"partial_json,omitempty"`
	StopReason   string `json:"stop_reason,omitempty"`
	StopSequence string `json:"stop_sequence,omitempty"`
}

type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anthropic stream error %s: %s", e.Type, e.Message)
}

// StreamEvent is one typed stream event.
type StreamEvent struct {
	Type         string           `json:"type"`
	Message      *MessageResponse `json:"message,omitempty"`
	Index        int              `json:"index"`
	ContentBlock *ContentBlock    `json:"content_block,omitempty"`
	Delta        *EventDelta      `json:"delta,omitempty"`
	Usage        *Usage           `json:"usage,omitempty"`
	Error        *APIError        `json:"error,omitempty"`
}
