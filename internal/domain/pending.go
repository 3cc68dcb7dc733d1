package domain

import "context"

// Pending is the deferred result of a non-blocking call.
type Pending struct {
	done chan struct{}
	resp *Response
	err  error
}

// NewPending runs fn on its own goroutine and returns a handle to its result.
func NewPending(fn func() (*Response, error)) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.resp, p.err = fn()
	}()
	return p
}

// Resolved returns a Pending that is already complete.
func Resolved(resp *Response, err error) *Pending {
	p := &Pending{done: make(chan struct{}), resp: resp, err: err}
	close(p.done)
	return p
}

// Done is closed once the result is available.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the result is available or ctx is done. Giving up on the
// wait does not cancel the call; cancel the context the call was started with.
func (p *Pending) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
