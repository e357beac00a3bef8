package llm

import "fmt"

// Supported backend providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ProviderConfig selects and configures a backend provider.
type ProviderConfig struct {
	Provider string
	Model    string
	BaseURL  string
}

// NewFactory returns a BackendFactory for the configured provider.
func NewFactory(cfg ProviderConfig) (BackendFactory, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = GeminiBaseURL
		}
		model := cfg.Model
		if model == "" {
			model = DefaultGeminiModel
		}
		return func(key string) (Backend, error) {
			return NewOpenAIBackend(key, baseURL, model), nil
		}, nil

	case ProviderOpenAI:
		return func(key string) (Backend, error) {
			return NewOpenAIBackend(key, cfg.BaseURL, cfg.Model), nil
		}, nil

	case ProviderAnthropic:
		return func(key string) (Backend, error) {
			return NewAnthropicBackend(key, cfg.BaseURL, cfg.Model), nil
		}, nil
	}

	return nil, fmt.Errorf("unknown AI provider %q (use %s, %s or %s)",
		cfg.Provider, ProviderGemini, ProviderOpenAI, ProviderAnthropic)
}
