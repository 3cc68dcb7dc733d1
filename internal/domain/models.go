package domain

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"

	// RoleModel is the Gemini spelling of RoleAssistant.
	RoleModel Role = "model"
)

// NormalizeRole maps provider aliases onto the canonical roles.
func NormalizeRole(role Role) Role {
	if role == RoleModel {
		return RoleAssistant
	}
	return role
}

// ProviderKind selects which wire family a provider speaks.
type ProviderKind string

const (
	KindOpenAI    ProviderKind = "openai"
	KindGemini    ProviderKind = "gemini"
	KindAnthropic ProviderKind = "anthropic"
)

// ContentKind tells the answer channel apart from the reasoning channel.
type ContentKind string

const (
	ContentThinking ContentKind = "thinking"
	ContentAnswer   ContentKind = "answer"
)

// Part is one element of a native nested part list, as used by Gemini.
type Part struct {
	Text    string `json:"text"`
	Thought bool   `json:"thought,omitempty"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the canonical result of a chat call.
type Response struct {
	Role         Role   `json:"role"`
	Content      string `json:"content"`
	Thinking     string `json:"thinking,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
	Model        string `json:"model,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`

	// Raw is a null-omitted map view of the native response, or the native
	// response itself when the call ran in raw verbose mode.
	Raw any `json:"raw,omitempty"`
}

// Message converts the response into a history entry. The extra fields travel
// as internal metadata and are stripped before the entry is sent again.
func (r *Response) Message() Message {
	meta := make(map[string]any)
	if r.Thinking != "" {
		meta[MetaThinking] = r.Thinking
	}
	if r.Usage != nil {
		meta[MetaUsage] = *r.Usage
	}
	if r.Model != "" {
		meta[MetaModel] = r.Model
	}
	if r.FinishReason != "" {
		meta[MetaFinishReason] = r.FinishReason
	}

	role := r.Role
	if role == "" {
		role = RoleAssistant
	}

	return Message{
		Role:     role,
		Content:  r.Content,
		Parts:    nil,
		Metadata: meta,
	}
}

// Callback receives every non-empty text fragment as it is produced.
// index is the position of the originating chunk within the call.
type Callback func(kind ContentKind, text string, index int)

// Options controls a single chat call.
type Options struct {
	Stream            bool
	RawVerbose        bool
	SystemInstruction string
	RealtimeDisplay   bool
	ShowThinking      bool
	Callback          Callback

	Temperature    *float64
	MaxTokens      *int
	ThinkingBudget *int

	// Params are merged into the provider request body as-is.
	Params map[string]any
}

// ChatRequest is the canonical input for one call.
type ChatRequest struct {
	Model    string
	Provider string
	Messages []Message
	Options  Options
}
