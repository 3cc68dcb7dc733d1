package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	rediscache "github.com/davidbz/prism/internal/cache/redis"
	"github.com/davidbz/prism/internal/config"
	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/http"
	"github.com/davidbz/prism/internal/http/middleware"
	"github.com/davidbz/prism/internal/observability"
	"github.com/davidbz/prism/internal/provider/anthropic"
	"github.com/davidbz/prism/internal/provider/echo"
	"github.com/davidbz/prism/internal/provider/gemini"
	"github.com/davidbz/prism/internal/provider/openai"
	"github.com/davidbz/prism/internal/provider/registry"
	"github.com/davidbz/prism/internal/routing"
)

const (
	shutdownTimeout  = 10 * time.Second
	redisPingTimeout = 2 * time.Second
)

// providersOut contributes zero or more providers to the registry group.
type providersOut struct {
	dig.Out
	Providers []domain.Provider `group:"providers,flatten"`
}

type providersIn struct {
	dig.In
	Providers []domain.Provider `group:"providers"`
}

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *http.Server) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errs := make(chan error, 1)
		go func() {
			errs <- server.Start()
		}()

		select {
		case err := <-errs:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Provide(observability.NewEventBus); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Provider Registry
	if err := container.Provide(func() domain.ProviderRegistry {
		return registry.NewRegistry()
	}); err != nil {
		log.Fatalf("Failed to provide registry: %v", err)
	}

	// Providers
	for name, constructor := range map[string]any{
		"chat completions": provideVendors,
		"gemini":           provideGemini,
		"anthropic":        provideAnthropic,
		"echo":             provideEcho,
	} {
		if err := container.Provide(constructor); err != nil {
			log.Fatalf("Failed to provide %s providers: %v", name, err)
		}
	}

	// Register providers with registry (invoked for side effects)
	if err := container.Invoke(registerProviders); err != nil {
		log.Fatalf("Failed to register providers: %v", err)
	}

	// Domain Services
	if err := container.Provide(routing.NewRouter); err != nil {
		log.Fatalf("Failed to provide router: %v", err)
	}
	if err := container.Provide(provideGateway); err != nil {
		log.Fatalf("Failed to provide gateway service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(func(gateway *domain.GatewayService, display *config.DisplayConfig) *http.Handler {
		return http.NewHandler(gateway, display)
	}); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

// skip logs providers left out because no API key is set.
func skip(logger *zap.Logger, name string, err error) error {
	if errors.Is(err, config.ErrProviderNotConfigured) {
		logger.Info("provider not configured, skipping", observability.String("provider", name))
		return nil
	}
	return err
}

func provideVendors(vendors *config.VendorsConfig, logger *zap.Logger) (providersOut, error) {
	var out providersOut

	byName := vendors.ByName()
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		cfg := byName[name]
		if err := config.RequireAPIKey(name, cfg.APIKey); err != nil {
			if skipErr := skip(logger, name, err); skipErr != nil {
				return out, skipErr
			}
			continue
		}

		var (
			provider *openai.Provider
			err      error
		)
		if name == openai.VendorOpenAI {
			provider, err = openai.NewProvider(cfg)
		} else {
			provider, err = openai.NewCompatibleProvider(name, cfg)
		}
		if err != nil {
			return out, fmt.Errorf("failed to create %s provider: %w", name, err)
		}
		out.Providers = append(out.Providers, provider)
	}

	return out, nil
}

func provideGemini(cfg *gemini.Config, logger *zap.Logger) (providersOut, error) {
	var out providersOut

	if err := config.RequireAPIKey("gemini", cfg.APIKey); err != nil {
		return out, skip(logger, "gemini", err)
	}

	provider, err := gemini.NewProvider(*cfg)
	if err != nil {
		return out, fmt.Errorf("failed to create gemini provider: %w", err)
	}
	out.Providers = append(out.Providers, provider)
	return out, nil
}

func provideAnthropic(cfg *anthropic.Config, logger *zap.Logger) (providersOut, error) {
	var out providersOut

	if err := config.RequireAPIKey("anthropic", cfg.APIKey); err != nil {
		return out, skip(logger, "anthropic", err)
	}

	provider, err := anthropic.NewProvider(*cfg)
	if err != nil {
		return out, fmt.Errorf("failed to create anthropic provider: %w", err)
	}
	out.Providers = append(out.Providers, provider)
	return out, nil
}

func provideEcho(cfg *config.EchoConfig) providersOut {
	var out providersOut
	if cfg.Enabled {
		out.Providers = append(out.Providers, echo.NewProvider())
	}
	return out
}

func registerProviders(reg domain.ProviderRegistry, in providersIn, logger *zap.Logger) error {
	ctx := context.Background()

	for _, provider := range in.Providers {
		if err := reg.Register(ctx, provider); err != nil {
			return fmt.Errorf("failed to register %s provider: %w", provider.Name(), err)
		}
	}

	names, err := reg.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list providers: %w", err)
	}
	logger.Info("providers registered", zap.Strings("providers", names))

	return nil
}

func provideGateway(
	reg domain.ProviderRegistry,
	router *routing.SimpleRouter,
	events *observability.EventBus,
	cacheCfg *config.CacheConfig,
	logger *zap.Logger,
) *domain.GatewayService {
	opts := []domain.GatewayOption{
		domain.WithRouter(router),
		domain.WithEvents(events),
	}

	if cacheCfg.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cacheCfg.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, response cache disabled",
				observability.String("addr", cacheCfg.RedisAddr),
				observability.Error(err))
		} else {
			ttl := time.Duration(cacheCfg.TTL) * time.Second
			opts = append(opts, domain.WithCache(rediscache.NewResponseCache(client), ttl))
			logger.Info("response cache enabled", observability.Duration("ttl", ttl))
		}
	}

	return domain.NewGatewayService(reg, opts...)
}
