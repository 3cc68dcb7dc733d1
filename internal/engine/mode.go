package engine

import "context"

// suspension abstracts the points where a call waits on its transport: the
// single response, the stream opening and every next chunk.
type suspension[M, C, N any] interface {
	name() string
	complete(ctx context.Context, req M) (N, error)
	open(ctx context.Context, req M) (source[C], error)
}

type source[C any] interface {
	// next returns ok=false once the sequence is exhausted.
	next(ctx context.Context) (chunk C, ok bool, err error)
	close() error
}

const (
	modeBlocking    = "blocking"
	modeNonBlocking = "non_blocking"
)

// blocking waits on the calling goroutine.
type blocking[M, C, N any] struct {
	t Transport[M, C, N]
}

func (b blocking[M, C, N]) name() string { return modeBlocking }

func (b blocking[M, C, N]) complete(ctx context.Context, req M) (N, error) {
	return b.t.Complete(ctx, req)
}

func (b blocking[M, C, N]) open(ctx context.Context, req M) (source[C], error) {
	stream, err := b.t.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	return &pullSource[C]{stream: stream}, nil
}

type pullSource[C any] struct {
	stream ChunkStream[C]
}

func (p *pullSource[C]) next(ctx context.Context) (C, bool, error) {
	var zero C
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if p.stream.Next() {
		return p.stream.Current(), true, nil
	}
	return zero, false, p.stream.Err()
}

func (p *pullSource[C]) close() error {
	return p.stream.Close()
}

// nonBlocking waits on channels, giving up as soon as ctx is done.
type nonBlocking[M, C, N any] struct {
	t AsyncTransport[M, C, N]
}

func (n nonBlocking[M, C, N]) name() string { return modeNonBlocking }

func (n nonBlocking[M, C, N]) complete(ctx context.Context, req M) (N, error) {
	var zero N
	select {
	case r := <-n.t.CompleteAsync(ctx, req):
		return r.Value, r.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (n nonBlocking[M, C, N]) open(ctx context.Context, req M) (source[C], error) {
	select {
	case r := <-n.t.StreamAsync(ctx, req):
		if r.Err != nil {
			return nil, r.Err
		}
		return &chanSource[C]{chunks: r.Value}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type chanSource[C any] struct {
	chunks Chunks[C]
}

func (c *chanSource[C]) next(ctx context.Context) (C, bool, error) {
	var zero C
	select {
	case r, ok := <-c.chunks:
		if !ok {
			return zero, false, nil
		}
		if r.Err != nil {
			return zero, false, r.Err
		}
		return r.Value, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// close is a no-op: the producer stops once the call context is cancelled.
func (c *chanSource[C]) close() error {
	return nil
}
