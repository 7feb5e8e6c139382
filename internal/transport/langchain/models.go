package langchain

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
)

// ModelConfig selects and configures a LangChainGo backend.
type ModelConfig struct {
	Kind    string // "anthropic" | "ollama"
	APIKey  string
	BaseURL string
	Model   string
}

// NewModel builds the model for cfg. It returns (nil, nil) when the kind
// needs credentials that are absent, so the provider is skipped at runtime.
func NewModel(cfg ModelConfig) (llms.Model, error) {
	switch cfg.Kind {
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, nil
		}
		opts := []anthropic.Option{
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		m, err := anthropic.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		return m, nil
	case "ollama":
		if cfg.BaseURL == "" || cfg.Model == "" {
			return nil, nil
		}
		m, err := ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithFormat("json"),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported langchain model kind %q (supported: anthropic, ollama)", cfg.Kind)
	}
}
