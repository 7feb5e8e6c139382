// Package langchain adapts LangChainGo chat models (Anthropic, Ollama) into
// filter extraction providers.
package langchain

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain"
	domext "github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/extraction"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/transport/llmprompt"
)

// Config holds the model call settings.
type Config struct {
	Name        string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Extractor asks a LangChainGo model for filters. The model is injected so
// tests can substitute a fake.
type Extractor struct {
	model  llms.Model
	config Config
	logger *zap.Logger
}

// NewExtractor wraps model. A nil model yields an unconfigured provider.
func NewExtractor(model llms.Model, cfg Config, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{model: model, config: cfg, logger: logger}
}

// Name implements extraction.Provider.
func (e *Extractor) Name() string { return e.config.Name }

// Configured implements extraction.Provider.
func (e *Extractor) Configured() bool { return e.model != nil }

// Extract sends system and human messages in JSON mode and parses the reply.
func (e *Extractor) Extract(ctx context.Context, query string, qctx domext.QueryContext) (domext.Result, error) {
	if e.model == nil {
		return domext.Result{}, domain.ErrProviderNotConfigured
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, llmprompt.SystemPrompt()),
		llms.TextParts(llms.ChatMessageTypeHuman, llmprompt.UserPrompt(query, qctx)),
	}

	resp, err := e.model.GenerateContent(ctx, messages,
		llms.WithModel(e.config.Model),
		llms.WithTemperature(e.config.Temperature),
		llms.WithMaxTokens(e.config.MaxTokens),
		llms.WithJSONMode(),
	)
	if err != nil {
		return domext.Result{}, fmt.Errorf("%s generation failed: %v: %w", e.config.Name, err, domain.ErrProviderError)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return domext.Result{}, llmprompt.ErrEmptyReply
	}

	choice := resp.Choices[0]
	e.logger.Debug("llm raw reply", zap.String("provider", e.config.Name), zap.String("reply", choice.Content))

	result, err := llmprompt.Parse(choice.Content)
	if err != nil {
		return domext.Result{}, err
	}
	result.Metadata = domext.Metadata{
		Provider: e.config.Name,
		Model:    e.config.Model,
		Tokens:   tokensFrom(choice.GenerationInfo),
	}
	return result, nil
}

// tokensFrom reads usage from GenerationInfo. Providers disagree on key names.
func tokensFrom(info map[string]any) domext.Tokens {
	return domext.Tokens{
		Input:  firstInt(info, "InputTokens", "PromptTokens", "input_tokens", "prompt_tokens"),
		Output: firstInt(info, "OutputTokens", "CompletionTokens", "output_tokens", "completion_tokens"),
	}
}

func firstInt(info map[string]any, keys ...string) int {
	for _, k := range keys {
		switch v := info[k].(type) {
		case int:
			return v
		case int32:
			return int(v)
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}
