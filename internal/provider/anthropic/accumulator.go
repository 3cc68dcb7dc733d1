package anthropic

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/engine"
)

type blockState struct {
	block       ContentBlock
	partialJSON strings.Builder
	closed      bool
}

// Accumulator folds stream events into a MessageResponse.
type Accumulator struct {
	emit   engine.Emitter
	chunks []StreamEvent

	id, role, model          string
	stopReason, stopSequence string
	usage                    *Usage
	blocks                   map[int]*blockState
	stopped                  bool
	err                      *APIError

	final *MessageResponse
}

// NewAccumulator creates an accumulator reporting text and thinking deltas to emit.
func NewAccumulator(emit engine.Emitter) *Accumulator {
	return &Accumulator{
		emit:   emit,
		blocks: make(map[int]*blockState),
	}
}

func (a *Accumulator) Add(event StreamEvent) error {
	if a.final != nil {
		return domain.ErrAccumulatorClosed
	}

	index := len(a.chunks)
	a.chunks = append(a.chunks, event)

	switch event.Type {
	case EventMessageStart:
		if m := event.Message; m != nil {
			a.id, a.model, a.role = m.ID, m.Model, m.Role
			a.mergeUsage(m.Usage)
		}

	case EventContentBlockStart:
		if event.ContentBlock == nil {
			return nil
		}
		block := *event.ContentBlock
		// the start event carries an empty input placeholder
		block.Input = nil
		a.blocks[event.Index] = &blockState{block: block}
		a.emit.Emit(domain.ContentThinking, block.Thinking, index)
		a.emit.Emit(domain.ContentAnswer, block.Text, index)

	case EventContentBlockDelta:
		if event.Delta != nil {
			a.applyDelta(event.Index, *event.Delta, index)
		}

	case EventContentBlockStop:
		if st, ok := a.blocks[event.Index]; ok {
			st.closed = true
			st.finish()
		}

	case EventMessageDelta:
		if d := event.Delta; d != nil {
			if d.StopReason != "" {
				a.stopReason = d.StopReason
			}
			if d.StopSequence != "" {
				a.stopSequence = d.StopSequence
			}
		}
		a.mergeUsage(event.Usage)

	case EventMessageStop:
		a.stopped = true

	case EventError:
		a.err = event.Error

	case EventPing:
	}

	return nil
}

func (a *Accumulator) applyDelta(blockIndex int, delta EventDelta, index int) {
	st, ok := a.blocks[blockIndex]
	if !ok {
		st = &blockState{block: ContentBlock{Type: implicitBlockType(delta.Type)}}
		a.blocks[blockIndex] = st
	}

	switch delta.Type {
	case DeltaText:
		st.block.Text += delta.Text
		a.emit.Emit(domain.ContentAnswer, delta.Text, index)
	case DeltaThinking:
		st.block.Thinking += delta.Thinking
		a.emit.Emit(domain.ContentThinking, delta.Thinking, index)
	case DeltaSignature:
		st.block.Signature = delta.Signature
	case DeltaInputJSON:
		st.partialJSON.WriteString(delta.PartialJSON)
	}
}

func implicitBlockType(deltaType string) string {
	switch deltaType {
	case DeltaThinking, DeltaSignature:
		return BlockThinking
	case DeltaInputJSON:
		return BlockToolUse
	default:
		return BlockText
	}
}

func (a *Accumulator) mergeUsage(u *Usage) {
	if u == nil {
		return
	}
	if a.usage == nil {
		a.usage = &Usage{}
	}
	a.usage.merge(u)
}

// Finalize assembles the message with blocks ordered by index. Blocks that
// never received a stop event are finished here. Later calls return the same
// value.
func (a *Accumulator) Finalize() *MessageResponse {
	if a.final != nil {
		return a.final
	}

	resp := &MessageResponse{
		ID:           a.id,
		Type:         "message",
		Role:         a.role,
		Model:        a.model,
		Content:      make([]ContentBlock, 0, len(a.blocks)),
		StopReason:   a.stopReason,
		StopSequence: a.stopSequence,
		Usage:        a.usage,
	}
	if resp.Role == "" {
		resp.Role = string(domain.RoleAssistant)
	}

	for _, i := range slices.Sorted(maps.Keys(a.blocks)) {
		st := a.blocks[i]
		if !st.closed {
			st.finish()
		}
		resp.Content = append(resp.Content, st.block)
	}

	a.final = resp
	return resp
}

// Chunks returns the raw events received so far.
func (a *Accumulator) Chunks() []StreamEvent {
	return slices.Clone(a.chunks)
}

// Stopped reports whether message_stop was seen.
func (a *Accumulator) Stopped() bool {
	return a.stopped
}

// Err returns the error event received, if any.
func (a *Accumulator) Err() *APIError {
	return a.err
}

// finish parses the buffered tool input, repairing truncated JSON if needed.
func (s *blockState) finish() {
	if s.block.Type != BlockToolUse || s.partialJSON.Len() == 0 {
		return
	}
	raw := s.partialJSON.String()
	s.partialJSON.Reset()

	input, ok := parseInput(raw)
	if !ok {
		s.block.PartialJSON = raw
		return
	}
	s.block.Input = input
}

func parseInput(raw string) (map[string]any, bool) {
	var input map[string]any
	if err := json.Unmarshal([]byte(raw), &input); err == nil {
		return input, true
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &input); err != nil {
		return nil, false
	}
	return input, true
}
