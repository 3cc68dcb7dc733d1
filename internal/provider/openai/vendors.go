package openai

import "github.com/davidbz/prism/internal/provider/catalog"

// Vendor is an endpoint speaking the chat completions protocol.
type Vendor struct {
	Name    string
	BaseURL string
	Models  *catalog.Catalog
}

const (
	VendorOpenAI     = "openai"
	VendorMoonshot   = "moonshot"
	VendorAliyun     = "aliyun"
	VendorDeepSeek   = "deepseek"
	VendorOpenRouter = "openrouter"
)

// Vendors returns the known chat completions vendors.
func Vendors() map[string]Vendor {
	return map[string]Vendor{
		VendorOpenAI: {
			Name:    VendorOpenAI,
			BaseURL: "https://api.openai.com/v1",
			Models: catalog.New(
				[]string{"gpt-4o", "gpt-4o-mini", "gpt-4.1", "gpt-4.1-mini", "o1", "o3", "o3-mini", "o4-mini"},
				"gpt-", "chatgpt-", "o1-", "o3-", "o4-",
			),
		},
		VendorMoonshot: {
			Name:    VendorMoonshot,
			BaseURL: "https://api.moonshot.cn/v1",
			Models:  catalog.New([]string{"kimi-k2-0711-preview", "kimi-k2-turbo-preview"}, "kimi-", "moonshot-"),
		},
		VendorAliyun: {
			Name:    VendorAliyun,
			BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
			Models:  catalog.New([]string{"qwen-plus", "qwen-max", "qwen-turbo"}, "qwen-"),
		},
		VendorDeepSeek: {
			Name:    VendorDeepSeek,
			BaseURL: "https://api.deepseek.com",
			Models:  catalog.New([]string{"deepseek-chat", "deepseek-reasoner"}, "deepseek-"),
		},
		VendorOpenRouter: {
			Name:    VendorOpenRouter,
			BaseURL: "https://openrouter.ai/api/v1",
			Models: catalog.New(
				[]string{"openai/gpt-4o", "google/gemini-2.5-flash", "anthropic/claude-sonnet-4"},
				"openai/", "google/", "anthropic/", "meta-llama/", "mistralai/", "deepseek/", "qwen/",
			),
		},
	}
}
