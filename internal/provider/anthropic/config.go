package anthropic

// Config contains the Anthropic API settings. Tags are relative to the
// ANTHROPIC_ prefix applied by the config package.
type Config struct {
	APIKey         string `env:"API_KEY"`
	BaseURL        string `env:"BASE_URL"        envDefault:"https://api.anthropic.com"`
	Timeout        int    `env:"TIMEOUT"         envDefault:"120"`
	MaxTokens      int    `env:"MAX_TOKENS"      envDefault:"64000"`
	ThinkingBudget int    `env:"THINKING_BUDGET" envDefault:"8192"`
}
