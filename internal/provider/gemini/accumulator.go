package gemini

import (
	"slices"
	"strings"

	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/engine"
)

// Accumulator folds snapshot chunks. Each chunk carrying content replaces the
// answer text held so far; thought text is replaced only by chunks that carry
// thought parts.
type Accumulator struct {
	emit   engine.Emitter
	chunks []GenerateContentResponse

	role, answer, thought string
	finishReason          string
	usage                 *UsageMetadata
	modelVersion          string
	responseID            string
	citations             []CitationSource
	others                []Candidate

	final *GenerateContentResponse
}

// NewAccumulator creates an accumulator reporting fragments of candidate 0 to emit.
func NewAccumulator(emit engine.Emitter) *Accumulator {
	return &Accumulator{emit: emit}
}

func (a *Accumulator) Add(chunk GenerateContentResponse) error {
	if a.final != nil {
		return domain.ErrAccumulatorClosed
	}

	index := len(a.chunks)
	a.chunks = append(a.chunks, chunk)

	if chunk.UsageMetadata != nil {
		usage := *chunk.UsageMetadata
		a.usage = &usage
	}
	if chunk.ModelVersion != "" {
		a.modelVersion = chunk.ModelVersion
	}
	if chunk.ResponseID != "" {
		a.responseID = chunk.ResponseID
	}

	if len(chunk.Candidates) == 0 {
		return nil
	}
	a.others = slices.Clone(chunk.Candidates[1:])

	candidate := chunk.Candidates[0]
	if candidate.FinishReason != "" {
		a.finishReason = candidate.FinishReason
	}
	if candidate.CitationMetadata != nil {
		a.addCitations(candidate.CitationMetadata.CitationSources)
	}
	if candidate.Content == nil {
		return nil
	}
	if candidate.Content.Role != "" {
		a.role = candidate.Content.Role
	}

	answer, thought, hasThought := splitText(candidate.Content)
	if hasThought {
		a.emit.Emit(domain.ContentThinking, suffix(a.thought, thought), index)
		a.thought = thought
	}
	a.emit.Emit(domain.ContentAnswer, suffix(a.answer, answer), index)
	a.answer = answer

	return nil
}

// Finalize rebuilds the last snapshot with the retained thought text. Later
// calls return the same value.
func (a *Accumulator) Finalize() *GenerateContentResponse {
	if a.final != nil {
		return a.final
	}

	resp := &GenerateContentResponse{
		UsageMetadata: a.usage,
		ModelVersion:  a.modelVersion,
		ResponseID:    a.responseID,
	}

	if len(a.chunks) > 0 && (a.role != "" || a.answer != "" || a.thought != "" || a.finishReason != "") {
		role := a.role
		if role == "" {
			role = roleModel
		}

		var parts []Part
		if a.thought != "" {
			parts = append(parts, Part{Text: a.thought, Thought: true})
		}
		if a.answer != "" {
			parts = append(parts, Part{Text: a.answer})
		}

		candidate := Candidate{
			Content:      &Content{Role: role, Parts: parts},
			FinishReason: a.finishReason,
		}
		if len(a.citations) > 0 {
			candidate.CitationMetadata = &CitationMetadata{CitationSources: a.citations}
		}
		resp.Candidates = append([]Candidate{candidate}, a.others...)
	}

	a.final = resp
	return resp
}

// Chunks returns the raw chunks received so far.
func (a *Accumulator) Chunks() []GenerateContentResponse {
	return slices.Clone(a.chunks)
}

// addCitations merges sources seen across snapshots, kept sorted by start index.
func (a *Accumulator) addCitations(sources []CitationSource) {
	for _, s := range sources {
		if !slices.Contains(a.citations, s) {
			a.citations = append(a.citations, s)
		}
	}
	slices.SortStableFunc(a.citations, func(x, y CitationSource) int {
		return x.StartIndex - y.StartIndex
	})
}

// suffix returns the part of next beyond prev, or all of next when the
// snapshot does not extend prev.
func suffix(prev, next string) string {
	if rest, ok := strings.CutPrefix(next, prev); ok {
		return rest
	}
	return next
}
