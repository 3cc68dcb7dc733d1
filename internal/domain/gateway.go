package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davidbz/prism/internal/observability"
)

const defaultCacheTTL = time.Hour

// GatewayService resolves providers for canonical requests and runs them.
type GatewayService struct {
	registry ProviderRegistry
	router   Router
	cache    ResponseCache
	cacheTTL time.Duration
	events   EventPublisher
}

// GatewayOption configures optional collaborators of the gateway.
type GatewayOption func(*GatewayService)

// WithRouter routes requests through r instead of the registry model index.
func WithRouter(r Router) GatewayOption {
	return func(g *GatewayService) {
		g.router = r
	}
}

// WithCache enables the response cache. A non-positive ttl means one hour.
func WithCache(cache ResponseCache, ttl time.Duration) GatewayOption {
	return func(g *GatewayService) {
		g.cache = cache
		if ttl > 0 {
			g.cacheTTL = ttl
		}
	}
}

// WithEvents publishes call outcomes to p.
func WithEvents(p EventPublisher) GatewayOption {
	return func(g *GatewayService) {
		g.events = p
	}
}

// NewGatewayService creates a new gateway service.
func NewGatewayService(registry ProviderRegistry, opts ...GatewayOption) *GatewayService {
	g := &GatewayService{
		registry: registry,
		cacheTTL: defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Chat handles a blocking chat request.
func (g *GatewayService) Chat(ctx context.Context, req *ChatRequest) (*Response, error) {
	provider, err := g.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx = observability.WithModel(observability.WithProvider(ctx, provider.Name()), req.Model)

	if cached := g.lookup(ctx, provider, req); cached != nil {
		return cached, nil
	}

	resp, err := provider.Chat(ctx, req)
	return g.finish(ctx, provider, req, resp, err)
}

// ChatAsync handles a non-blocking chat request. Request validation and
// provider resolution errors are reported through the returned Pending.
func (g *GatewayService) ChatAsync(ctx context.Context, req *ChatRequest) *Pending {
	provider, err := g.resolve(ctx, req)
	if err != nil {
		return Resolved(nil, err)
	}

	ctx = observability.WithModel(observability.WithProvider(ctx, provider.Name()), req.Model)

	return NewPending(func() (*Response, error) {
		if cached := g.lookup(ctx, provider, req); cached != nil {
			return cached, nil
		}

		resp, err := provider.ChatAsync(ctx, req).Wait(ctx)
		return g.finish(ctx, provider, req, resp, err)
	})
}

func (g *GatewayService) resolve(ctx context.Context, req *ChatRequest) (Provider, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}

	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	if g.router != nil {
		name, err := g.router.Route(ctx, &RouteRequest{Model: req.Model, Provider: req.Provider})
		if err != nil {
			return nil, fmt.Errorf("provider routing failed: %w", err)
		}
		provider, err := g.registry.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("provider not found: %w", err)
		}
		return provider, nil
	}

	if req.Provider != "" {
		provider, err := g.registry.Get(ctx, req.Provider)
		if err != nil {
			return nil, fmt.Errorf("provider not found: %w", err)
		}
		return provider, nil
	}

	provider, err := g.registry.GetByModel(ctx, req.Model)
	if err != nil {
		return nil, fmt.Errorf("provider routing failed: %w", err)
	}
	return provider, nil
}

// cacheable reports whether a request may be answered from the cache. Streamed
// and observed calls always reach the provider so their output is produced live.
func (g *GatewayService) cacheable(req *ChatRequest) bool {
	opts := req.Options
	return g.cache != nil && !opts.Stream && !opts.RawVerbose && !opts.RealtimeDisplay && opts.Callback == nil
}

func (g *GatewayService) lookup(ctx context.Context, provider Provider, req *ChatRequest) *Response {
	if !g.cacheable(req) {
		return nil
	}

	logger := observability.FromContext(ctx)

	cached, err := g.cache.Get(ctx, provider.Name(), req)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logger.Warn("cache get failed, continuing without cache", observability.Error(err))
		}
		return nil
	}

	logger.Info("cache hit")
	return cached
}

func (g *GatewayService) finish(
	ctx context.Context,
	provider Provider,
	req *ChatRequest,
	resp *Response,
	err error,
) (*Response, error) {
	logger := observability.FromContext(ctx)

	if err != nil {
		var interrupted *StreamInterruptedError
		if errors.As(err, &interrupted) {
			g.publish(ctx, "chat.interrupted", map[string]any{
				"provider":      provider.Name(),
				"model":         req.Model,
				"partial_bytes": len(interrupted.PartialContent()),
			})
		}
		return nil, fmt.Errorf("chat failed: %w", err)
	}

	if g.cacheable(req) {
		if setErr := g.cache.Set(ctx, provider.Name(), req, resp, g.cacheTTL); setErr != nil {
			logger.Warn("failed to store in cache", observability.Error(setErr))
		}
	}

	data := map[string]any{
		"provider": provider.Name(),
		"model":    req.Model,
		"stream":   req.Options.Stream,
	}
	if resp.Usage != nil {
		data["total_tokens"] = resp.Usage.TotalTokens
	}
	g.publish(ctx, "chat.completed", data)

	return resp, nil
}

func (g *GatewayService) publish(ctx context.Context, eventType string, data map[string]any) {
	if g.events == nil {
		return
	}
	g.events.Publish(ctx, eventType, data)
}
