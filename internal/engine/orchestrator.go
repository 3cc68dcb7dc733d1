package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/davidbz/prism/internal/display"
	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/observability"
)

// Codec is the per-provider strategy: request shaping, chunk accumulation and
// response conversion for one wire family.
type Codec[M, C, N any] interface {
	Kind() domain.ProviderKind

	// BuildRequest normalizes the canonical request into the provider request.
	BuildRequest(req *domain.ChatRequest) (M, error)

	// NewAccumulator returns a fresh accumulator reporting fragments to emit.
	NewAccumulator(emit Emitter) Accumulator[C, N]

	// Convert turns a native response into the canonical response.
	Convert(native N, rawVerbose bool) (*domain.Response, error)
}

// Option configures an Orchestrator.
type Option func(*settings)

type settings struct {
	printer display.Printer
}

// WithPrinter sets where realtime display output goes. Defaults to stdout.
func WithPrinter(p display.Printer) Option {
	return func(s *settings) {
		s.printer = p
	}
}

// Orchestrator runs canonical chat calls against one provider endpoint.
type Orchestrator[M, C, N any] struct {
	name      string
	codec     Codec[M, C, N]
	transport Transport[M, C, N]
	async     AsyncTransport[M, C, N]
	settings  settings
}

// NewOrchestrator creates an orchestrator. When transport also implements
// AsyncTransport it is used natively for non-blocking calls; otherwise the
// blocking transport is run on goroutines.
func NewOrchestrator[M, C, N any](
	name string,
	codec Codec[M, C, N],
	transport Transport[M, C, N],
	opts ...Option,
) *Orchestrator[M, C, N] {
	async, ok := any(transport).(AsyncTransport[M, C, N])
	if !ok {
		async = Async(transport)
	}

	o := &Orchestrator[M, C, N]{
		name:      name,
		codec:     codec,
		transport: transport,
		async:     async,
	}
	for _, opt := range opts {
		opt(&o.settings)
	}
	if o.settings.printer == nil {
		o.settings.printer = display.NewTerminalPrinter(os.Stdout)
	}
	return o
}

// Name returns the provider identifier.
func (o *Orchestrator[M, C, N]) Name() string {
	return o.name
}

// Kind returns the wire family of the codec.
func (o *Orchestrator[M, C, N]) Kind() domain.ProviderKind {
	return o.codec.Kind()
}

// Chat runs the call on the calling goroutine.
func (o *Orchestrator[M, C, N]) Chat(ctx context.Context, req *domain.ChatRequest) (*domain.Response, error) {
	return o.run(ctx, req, blocking[M, C, N]{t: o.transport})
}

// ChatAsync starts the call and returns immediately. Cancel ctx to abort it.
func (o *Orchestrator[M, C, N]) ChatAsync(ctx context.Context, req *domain.ChatRequest) *domain.Pending {
	return domain.NewPending(func() (*domain.Response, error) {
		return o.run(ctx, req, nonBlocking[M, C, N]{t: o.async})
	})
}

func (o *Orchestrator[M, C, N]) run(
	ctx context.Context,
	req *domain.ChatRequest,
	mode suspension[M, C, N],
) (resp *domain.Response, err error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	start := time.Now()
	ctx = observability.WithMode(ctx, mode.name())
	logger := observability.FromContext(ctx)
	logger.Debug("chat call started", observability.Bool("stream", req.Options.Stream))
	defer func() {
		o.record(ctx, mode.name(), start, resp, err)
	}()

	wire, err := o.codec.BuildRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", o.name, err)
	}

	emit, closeDisplay := o.emitter(req.Options)
	defer closeDisplay()

	rawVerbose := req.Options.RawVerbose

	if !req.Options.Stream {
		native, callErr := mode.complete(ctx, wire)
		if callErr != nil {
			return nil, o.callError(ctx, callErr)
		}

		resp, err = o.codec.Convert(native, rawVerbose)
		if err != nil {
			return nil, err
		}

		emit.Emit(domain.ContentThinking, resp.Thinking, 0)
		emit.Emit(domain.ContentAnswer, resp.Content, 0)
		return resp, nil
	}

	// Cancelling on exit releases producers still blocked on a send.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	src, err := mode.open(streamCtx, wire)
	if err != nil {
		return nil, o.callError(ctx, err)
	}
	defer func() {
		if closeErr := src.close(); closeErr != nil {
			logger.Debug("failed to close stream", observability.Error(closeErr))
		}
	}()

	acc := o.codec.NewAccumulator(emit)
	received := 0
	defer func() {
		observability.StreamChunksTotal.WithLabelValues(o.name).Add(float64(received))
	}()

	for {
		chunk, ok, nextErr := src.next(streamCtx)
		if nextErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%s stream cancelled after %d chunks: %w", o.name, received, ctxErr)
			}
			return nil, o.interrupted(acc, rawVerbose, nextErr)
		}
		if !ok {
			break
		}

		if addErr := acc.Add(chunk); addErr != nil {
			return nil, fmt.Errorf("failed to accumulate %s chunk %d: %w", o.name, received, addErr)
		}
		received++
	}

	return o.codec.Convert(acc.Finalize(), rawVerbose)
}

func (o *Orchestrator[M, C, N]) callError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s call cancelled: %w", o.name, ctxErr)
	}
	return fmt.Errorf("%s call failed: %w", o.name, err)
}

// interrupted finalizes what was buffered so the caller keeps the partial output.
func (o *Orchestrator[M, C, N]) interrupted(acc Accumulator[C, N], rawVerbose bool, cause error) error {
	partial, err := o.codec.Convert(acc.Finalize(), rawVerbose)
	if err != nil {
		return fmt.Errorf("%s stream failed: %w", o.name, errors.Join(cause, err))
	}
	return &domain.StreamInterruptedError{Partial: partial, Err: cause}
}

func (o *Orchestrator[M, C, N]) emitter(opts domain.Options) (Emitter, func()) {
	var observer *display.Observer
	if opts.RealtimeDisplay {
		observer = display.NewObserver(o.settings.printer, opts.ShowThinking)
	}

	if observer == nil && opts.Callback == nil {
		return nil, func() {}
	}

	emit := func(kind domain.ContentKind, text string, index int) {
		if opts.Callback != nil {
			opts.Callback(kind, text, index)
		}
		if observer != nil {
			observer.OnChunk(kind, text)
		}
	}

	return emit, func() {
		if observer != nil {
			observer.Close()
		}
	}
}

func (o *Orchestrator[M, C, N]) record(
	ctx context.Context,
	mode string,
	start time.Time,
	resp *domain.Response,
	err error,
) {
	elapsed := time.Since(start)
	logger := observability.FromContext(ctx)

	status := "ok"
	var interrupted *domain.StreamInterruptedError
	switch {
	case err == nil:
	case errors.As(err, &interrupted):
		status = "interrupted"
		observability.StreamInterruptionsTotal.WithLabelValues(o.name).Inc()
		logger.Warn("stream interrupted",
			observability.Int("partial_bytes", len(interrupted.PartialContent())),
			observability.Error(interrupted.Err),
		)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = "cancelled"
	default:
		status = "error"
	}

	observability.ChatRequestsTotal.WithLabelValues(o.name, mode, status).Inc()
	observability.ChatDuration.WithLabelValues(o.name, mode).Observe(elapsed.Seconds())

	if resp != nil && resp.Usage != nil {
		observability.TokensTotal.WithLabelValues(o.name, "input").Add(float64(resp.Usage.PromptTokens))
		observability.TokensTotal.WithLabelValues(o.name, "output").Add(float64(resp.Usage.CompletionTokens))
	}

	if err == nil {
		logger.Info("chat call completed", observability.Duration("duration", elapsed))
	}
}
