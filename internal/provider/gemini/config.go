package gemini

// Config contains the Gemini API settings. Tags are relative to the GEMINI_
// prefix applied by the config package.
type Config struct {
	APIKey         string `env:"API_KEY"`
	BaseURL        string `env:"BASE_URL"        envDefault:"https://generativelanguage.googleapis.com"`
	Timeout        int    `env:"TIMEOUT"         envDefault:"60"`
	ThinkingBudget int    `env:"THINKING_BUDGET" envDefault:"-1"`
}
