package engine

import "context"

// Transport is the blocking view of a provider endpoint.
type Transport[M, C, N any] interface {
	// Complete sends req and returns the native response.
	Complete(ctx context.Context, req M) (N, error)

	// Stream sends req and returns the native chunk sequence.
	Stream(ctx context.Context, req M) (ChunkStream[C], error)
}

// Result carries a value or the error that replaced it.
type Result[T any] struct {
	Value T
	Err   error
}

// Chunks is an asynchronously delivered chunk sequence. A Result with a
// non-nil Err ends the sequence; so does closing the channel.
type Chunks[C any] <-chan Result[C]

// AsyncTransport is the non-blocking view of a provider endpoint. Producers
// stop sending once ctx is done.
type AsyncTransport[M, C, N any] interface {
	// CompleteAsync resolves to the native response.
	CompleteAsync(ctx context.Context, req M) <-chan Result[N]

	// StreamAsync resolves to the chunk sequence once the stream is open.
	StreamAsync(ctx context.Context, req M) <-chan Result[Chunks[C]]
}

// Async runs a blocking transport on goroutines.
func Async[M, C, N any](t Transport[M, C, N]) AsyncTransport[M, C, N] {
	return &asyncTransport[M, C, N]{t: t}
}

type asyncTransport[M, C, N any] struct {
	t Transport[M, C, N]
}

func (a *asyncTransport[M, C, N]) CompleteAsync(ctx context.Context, req M) <-chan Result[N] {
	out := make(chan Result[N], 1)
	go func() {
		native, err := a.t.Complete(ctx, req)
		out <- Result[N]{Value: native, Err: err}
	}()
	return out
}

func (a *asyncTransport[M, C, N]) StreamAsync(ctx context.Context, req M) <-chan Result[Chunks[C]] {
	opened := make(chan Result[Chunks[C]], 1)
	go func() {
		stream, err := a.t.Stream(ctx, req)
		if err != nil {
			opened <- Result[Chunks[C]]{Err: err}
			return
		}
		defer stream.Close()

		chunks := make(chan Result[C])
		opened <- Result[Chunks[C]]{Value: chunks}
		defer close(chunks)

		for stream.Next() {
			select {
			case chunks <- Result[C]{Value: stream.Current()}:
			case <-ctx.Done():
				return
			}
		}

		if err := stream.Err(); err != nil {
			select {
			case chunks <- Result[C]{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return opened
}
