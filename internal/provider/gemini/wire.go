package gemini

import "github.com/davidbz/prism/internal/transport"

// Part is one element of a content part list. Thought marks reasoning text.
type Part struct {
	Text             string `json:"text,omitempty"`
	Thought          bool   `json:"thought,omitempty"`
	ThoughtSignature string `json:"thoughtSignature,omitempty"`
}

// Content is a role plus its parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type ThinkingConfig struct {
	IncludeThoughts bool `json:"includeThoughts"`
	ThinkingBudget  int  `json:"thinkingBudget"`
}

type GenerationConfig struct {
	Temperature     *float64        `json:"temperature,omitempty"`
	MaxOutputTokens *int            `json:"maxOutputTokens,omitempty"`
	ThinkingConfig  *ThinkingConfig `json:"thinkingConfig,omitempty"`
}

// GenerateContentRequest is the generateContent request body. Model travels
// in the URL path.
type GenerateContentRequest struct {
	Model             string            `json:"-"`
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`

	// Extra is merged into the body; it cannot override the fields above.
	Extra map[string]any `json:"-"`
}

func (r GenerateContentRequest) MarshalJSON() ([]byte, error) {
	type plain GenerateContentRequest
	return transport.MergeExtra(plain(r), r.Extra)
}

type CitationSource struct {
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
	URI        string `json:"uri,omitempty"`
	License    string `json:"license,omitempty"`
}

type CitationMetadata struct {
	CitationSources []CitationSource `json:"citationSources,omitempty"`
}

// Candidate is one generated alternative.
type Candidate struct {
	Content          *Content          `json:"content,omitempty"`
	FinishReason     string            `json:"finishReason,omitempty"`
	Index            int               `json:"index,omitempty"`
	CitationMetadata *CitationMetadata `json:"citationMetadata,omitempty"`
}

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
	ThoughtsTokenCount   int `json:"thoughtsTokenCount,omitempty"`
}

// GenerateContentResponse is both the complete response and the stream chunk.
type GenerateContentResponse struct {
	Candidates    []Candidate    `json:"candidates,omitempty"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
	ResponseID    string         `json:"responseId,omitempty"`
}

// splitText returns the concatenated answer and thought texts of content.
func splitText(content *Content) (answer, thought string, hasThought bool) {
	if content == nil {
		return "", "", false
	}
	for _, p := range content.Parts {
		if p.Thought {
			thought += p.Text
			hasThought = true
			continue
		}
		answer += p.Text
	}
	return answer, thought, hasThought
}
