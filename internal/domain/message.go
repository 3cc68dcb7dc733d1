package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
)

// Internal metadata keys. Anything prefixed with MetaPrefix is never forwarded
// to a provider.
const (
	MetaPrefix       = "_"
	MetaThinking     = "_thinking"
	MetaUsage        = "_usage"
	MetaModel        = "_model"
	MetaFinishReason = "_finish_reason"
	MetaRaw          = "_raw"
)

// Message represents a chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Parts carries a provider-native nested part list supplied by the caller.
	Parts []Part `json:"parts,omitempty"`

	// Metadata holds every other key found on the message.
	Metadata map[string]any `json:"-"`
}

// Validate checks that the message can be normalized for any provider.
// Assistant turns may be empty, as a call can produce only thinking or tool
// output and its Response.Message still belongs in the history.
func (m Message) Validate() error {
	if m.Role == "" {
		return &FormatError{Index: -1, Reason: "role is required"}
	}
	if NormalizeRole(m.Role) == RoleAssistant {
		return nil
	}
	if m.Content == "" && len(m.Parts) == 0 {
		return &FormatError{Index: -1, Reason: "message has neither content nor parts"}
	}
	return nil
}

// Text returns the content, falling back to the concatenated part texts.
func (m Message) Text() string {
	if m.Content != "" || len(m.Parts) == 0 {
		return m.Content
	}
	var b strings.Builder
	for _, p := range m.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// Extra returns the metadata keys that are safe to forward, i.e. the ones not
// marked internal.
func (m Message) Extra() map[string]any {
	var out map[string]any
	for k, v := range m.Metadata {
		if IsInternalKey(k) {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[k] = v
	}
	return out
}

// IsInternalKey reports whether a message key is internal metadata.
func IsInternalKey(key string) bool {
	return strings.HasPrefix(key, MetaPrefix)
}

// ValidateMessages validates a conversation, tagging errors with the index.
func ValidateMessages(messages []Message) error {
	for i, m := range messages {
		if err := m.Validate(); err != nil {
			var fe *FormatError
			if errors.As(err, &fe) {
				fe.Index = i
			}
			return err
		}
	}
	return nil
}

// MarshalJSON emits the canonical keys followed by the metadata keys.
func (m Message) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Metadata)+3)
	maps.Copy(out, m.Metadata)
	out["role"] = m.Role
	out["content"] = m.Content
	if len(m.Parts) > 0 {
		out["parts"] = m.Parts
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the canonical keys and keeps the rest as metadata.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}

	*m = Message{}
	for key, value := range raw {
		switch key {
		case "role":
			if err := json.Unmarshal(value, &m.Role); err != nil {
				return fmt.Errorf("failed to decode role: %w", err)
			}
		case "content":
			// null content is treated as absent
			if string(value) == "null" {
				continue
			}
			if err := json.Unmarshal(value, &m.Content); err != nil {
				return fmt.Errorf("failed to decode content: %w", err)
			}
		case "parts":
			if err := json.Unmarshal(value, &m.Parts); err != nil {
				return fmt.Errorf("failed to decode parts: %w", err)
			}
		default:
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return fmt.Errorf("failed to decode %s: %w", key, err)
			}
			if m.Metadata == nil {
				m.Metadata = make(map[string]any)
			}
			m.Metadata[key] = v
		}
	}
	return nil
}
