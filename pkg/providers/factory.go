package providers

import (
	"fmt"
	"strings"

	"github.com/lucidquant/tickerscout/pkg/config"
)

// NewFromConfig builds the provider selected by cfg.LLM.Provider.
func NewFromConfig(cfg *config.Config) (LLMProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.LLM.Provider)) {
	case "", "openai":
		return NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.BaseURL), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.LLM.APIKey, cfg.LLM.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (supported: openai, anthropic)", cfg.LLM.Provider)
	}
}
