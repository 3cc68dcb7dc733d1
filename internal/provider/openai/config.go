package openai

// Config contains the settings of one chat completions endpoint. Field tags
// are relative: the config package nests Config under a vendor prefix such as
// OPENAI_ or DEEPSEEK_.
//   - APIKey: Maps to option.WithAPIKey() or the Authorization header
//   - BaseURL: Maps to option.WithBaseURL(); empty means the vendor default
//   - Timeout: Maps to option.WithRequestTimeout() (in seconds)
//   - MaxRetries: Maps to option.WithMaxRetries() (SDK transport only)
type Config struct {
	APIKey     string `env:"API_KEY"`
	BaseURL    string `env:"BASE_URL"`
	Timeout    int    `env:"TIMEOUT"     envDefault:"60"`
	MaxRetries int    `env:"MAX_RETRIES" envDefault:"3"`
}
