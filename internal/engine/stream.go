package engine

import "iter"

// ChunkStream is a lazy sequence of provider chunks.
type ChunkStream[C any] interface {
	// Next advances to the next chunk, reporting false at the end or on error.
	Next() bool
	// Current returns the chunk Next advanced to.
	Current() C
	// Err returns the error that ended the stream, if any.
	Err() error
	// Close releases the underlying connection.
	Close() error
}

// SliceStream replays a fixed list of chunks, optionally ending with an error.
type SliceStream[C any] struct {
	chunks []C
	err    error
	pos    int
	closed bool
}

// NewSliceStream creates a stream over chunks. A non-nil err is reported after
// the last chunk.
func NewSliceStream[C any](chunks []C, err error) *SliceStream[C] {
	return &SliceStream[C]{chunks: chunks, err: err}
}

func (s *SliceStream[C]) Next() bool {
	if s.closed || s.pos >= len(s.chunks) {
		return false
	}
	s.pos++
	return true
}

func (s *SliceStream[C]) Current() C {
	return s.chunks[s.pos-1]
}

func (s *SliceStream[C]) Err() error {
	if s.pos >= len(s.chunks) {
		return s.err
	}
	return nil
}

func (s *SliceStream[C]) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *SliceStream[C]) Closed() bool {
	return s.closed
}

// SeqStream adapts an iterator into a ChunkStream.
type SeqStream[C any] struct {
	next func() (C, error, bool)
	stop func()
	cur  C
	err  error
}

// NewSeqStream pulls chunks from seq. A non-nil error yielded by seq ends the stream.
func NewSeqStream[C any](seq iter.Seq2[C, error]) *SeqStream[C] {
	next, stop := iter.Pull2(seq)
	return &SeqStream[C]{next: next, stop: stop}
}

func (s *SeqStream[C]) Next() bool {
	if s.err != nil {
		return false
	}
	chunk, err, ok := s.next()
	if !ok {
		return false
	}
	if err != nil {
		s.err = err
		return false
	}
	s.cur = chunk
	return true
}

func (s *SeqStream[C]) Current() C {
	return s.cur
}

func (s *SeqStream[C]) Err() error {
	return s.err
}

func (s *SeqStream[C]) Close() error {
	s.stop()
	return nil
}
