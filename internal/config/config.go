package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/prism/internal/provider/anthropic"
	"github.com/davidbz/prism/internal/provider/gemini"
	"github.com/davidbz/prism/internal/provider/openai"
)

// ErrProviderNotConfigured is returned by provider constructors when no API key
// is set, so the container can skip them.
var ErrProviderNotConfigured = errors.New("provider not configured")

// Config represents the gateway configuration.
type Config struct {
	Server  ServerConfig
	CORS    CORSConfig
	Cache   CacheConfig
	Display DisplayConfig
	Echo    EchoConfig
	Vendors VendorsConfig

	Gemini    gemini.Config    `envPrefix:"GEMINI_"`
	Anthropic anthropic.Config `envPrefix:"ANTHROPIC_"`
}

// VendorsConfig holds one chat completions endpoint per vendor.
type VendorsConfig struct {
	OpenAI     openai.Config `envPrefix:"OPENAI_"`
	Moonshot   openai.Config `envPrefix:"MOONSHOT_"`
	Aliyun     openai.Config `envPrefix:"ALIYUN_"`
	DeepSeek   openai.Config `envPrefix:"DEEPSEEK_"`
	OpenRouter openai.Config `envPrefix:"OPENROUTER_"`
}

// ByName returns the vendor configs keyed by vendor name.
func (v *VendorsConfig) ByName() map[string]openai.Config {
	return map[string]openai.Config{
		openai.VendorOpenAI:     v.OpenAI,
		openai.VendorMoonshot:   v.Moonshot,
		openai.VendorAliyun:     v.Aliyun,
		openai.VendorDeepSeek:   v.DeepSeek,
		openai.VendorOpenRouter: v.OpenRouter,
	}
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"300"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization,X-Provider"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// CacheConfig contains response cache settings. TTL is in seconds.
type CacheConfig struct {
	Enabled   bool   `env:"CACHE_ENABLED" envDefault:"false"`
	RedisAddr string `env:"REDIS_ADDR"    envDefault:"localhost:6379"`
	TTL       int    `env:"CACHE_TTL"     envDefault:"3600"`
}

// DisplayConfig toggles realtime terminal output for every call.
type DisplayConfig struct {
	Enabled      bool `env:"DISPLAY_ENABLED"       envDefault:"false"`
	ShowThinking bool `env:"DISPLAY_SHOW_THINKING" envDefault:"true"`
}

// EchoConfig toggles the in-memory echo provider.
type EchoConfig struct {
	Enabled bool `env:"ECHO_ENABLED" envDefault:"true"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*CacheConfig
	*DisplayConfig
	*EchoConfig
	*VendorsConfig

	Gemini    *gemini.Config
	Anthropic *anthropic.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Cache,
		&cfg.Display,
		&cfg.Echo,
		&cfg.Vendors,
		&cfg.Gemini,
		&cfg.Anthropic,
	}
}

// RequireAPIKey reports ErrProviderNotConfigured when key is empty.
func RequireAPIKey(provider, key string) error {
	if key == "" {
		return fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}
	return nil
}
