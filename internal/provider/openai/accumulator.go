package openai

import (
	"slices"
	"strings"

	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/engine"
)

type choiceState struct {
	role         string
	content      strings.Builder
	reasoning    strings.Builder
	finishReason string
	toolCalls    map[int]*ToolCall
}

// Accumulator folds delta chunks into a ChatCompletion.
type Accumulator struct {
	emit   engine.Emitter
	chunks []ChatCompletionChunk

	id                string
	created           int64
	model             string
	systemFingerprint string
	usage             *Usage

	choices map[int]*choiceState
	final   *ChatCompletion
}

// NewAccumulator creates an accumulator reporting fragments of choice 0 to emit.
func NewAccumulator(emit engine.Emitter) *Accumulator {
	return &Accumulator{
		emit:    emit,
		choices: make(map[int]*choiceState),
	}
}

// Add appends the chunk's deltas. Usage and finish reason keep the last
// non-null value seen.
func (a *Accumulator) Add(chunk ChatCompletionChunk) error {
	if a.final != nil {
		return domain.ErrAccumulatorClosed
	}

	index := len(a.chunks)
	a.chunks = append(a.chunks, chunk)

	if a.id == "" {
		a.id = chunk.ID
	}
	if a.created == 0 {
		a.created = chunk.Created
	}
	if a.model == "" {
		a.model = chunk.Model
	}
	if a.systemFingerprint == "" {
		a.systemFingerprint = chunk.SystemFingerprint
	}
	if chunk.Usage != nil {
		usage := *chunk.Usage
		a.usage = &usage
	}

	for _, choice := range chunk.Choices {
		state := a.choice(choice.Index)
		delta := choice.Delta

		if delta.Role != "" {
			state.role = delta.Role
		}
		state.reasoning.WriteString(delta.ReasoningContent)
		state.content.WriteString(delta.Content)
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			state.finishReason = *choice.FinishReason
		}
		for _, tc := range delta.ToolCalls {
			state.addToolCall(tc)
		}

		if choice.Index == 0 {
			a.emit.Emit(domain.ContentThinking, delta.ReasoningContent, index)
			a.emit.Emit(domain.ContentAnswer, delta.Content, index)
		}
	}

	return nil
}

// Finalize assembles the complete response. Later calls return the same value.
func (a *Accumulator) Finalize() *ChatCompletion {
	if a.final != nil {
		return a.final
	}

	completion := &ChatCompletion{
		ID:                a.id,
		Object:            "chat.completion",
		Created:           a.created,
		Model:             a.model,
		SystemFingerprint: a.systemFingerprint,
		Choices:           make([]Choice, 0, len(a.choices)),
		Usage:             a.usage,
	}

	indexes := make([]int, 0, len(a.choices))
	for i := range a.choices {
		indexes = append(indexes, i)
	}
	slices.Sort(indexes)

	for _, i := range indexes {
		state := a.choices[i]
		role := state.role
		if role == "" {
			role = string(domain.RoleAssistant)
		}
		completion.Choices = append(completion.Choices, Choice{
			Index: i,
			Message: AssistantMessage{
				Role:             role,
				Content:          state.content.String(),
				ReasoningContent: state.reasoning.String(),
				ToolCalls:        state.orderedToolCalls(),
			},
			FinishReason: state.finishReason,
		})
	}

	a.final = completion
	return completion
}

// Chunks returns the raw chunks received so far.
func (a *Accumulator) Chunks() []ChatCompletionChunk {
	return slices.Clone(a.chunks)
}

func (a *Accumulator) choice(index int) *choiceState {
	state, ok := a.choices[index]
	if !ok {
		state = &choiceState{toolCalls: make(map[int]*ToolCall)}
		a.choices[index] = state
	}
	return state
}

// addToolCall merges a fragment: id, type and name are set once, arguments
// are appended.
func (s *choiceState) addToolCall(delta ToolCallDelta) {
	call, ok := s.toolCalls[delta.Index]
	if !ok {
		call = &ToolCall{}
		s.toolCalls[delta.Index] = call
	}
	if call.ID == "" {
		call.ID = delta.ID
	}
	if call.Type == "" {
		call.Type = delta.Type
	}
	if call.Function.Name == "" {
		call.Function.Name = delta.Function.Name
	}
	call.Function.Arguments += delta.Function.Arguments
}

func (s *choiceState) orderedToolCalls() []ToolCall {
	if len(s.toolCalls) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(s.toolCalls))
	for i := range s.toolCalls {
		indexes = append(indexes, i)
	}
	slices.Sort(indexes)

	calls := make([]ToolCall, 0, len(indexes))
	for _, i := range indexes {
		calls = append(calls, *s.toolCalls[i])
	}
	return calls
}
