// Package engine drives provider calls through one shared code path: a codec
// shapes the request, a transport delivers a response or a chunk stream, an
// accumulator folds the chunks, and the codec converts the result into the
// canonical response.
package engine

import "github.com/davidbz/prism/internal/domain"

// Emitter receives each non-empty text fragment an accumulator extracts,
// synchronously and in chunk arrival order.
type Emitter func(kind domain.ContentKind, text string, index int)

// Emit calls e unless it is nil or text is empty.
func (e Emitter) Emit(kind domain.ContentKind, text string, index int) {
	if e == nil || text == "" {
		return
	}
	e(kind, text, index)
}

// Accumulator folds provider chunks of type C into a native response N.
//
// Add must return domain.ErrAccumulatorClosed once Finalize has been called.
// Finalize never fails: with no chunks it returns an empty native response.
type Accumulator[C, N any] interface {
	Add(chunk C) error
	Finalize() N
}
