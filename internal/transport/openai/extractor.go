package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain"
	domext "github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/extraction"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/transport/llmprompt"
)

// Extractor is a filter extraction provider using the OpenAI-compatible chat API.
type Extractor struct {
	client      *openai.Client
	name        string
	model       string
	temperature float32
	maxTokens   int
	configured  bool
	logger      *zap.Logger
}

// Config holds the chat provider settings.
type Config struct {
	Name        string
	APIKey      string
	BaseURL     string // empty = api.openai.com
	Model       string
	Temperature float64
	MaxTokens   int
	Logger      *zap.Logger
}

// NewExtractor creates an OpenAI-compatible extraction provider. Without an
// API key the provider is built but reports itself unconfigured.
func NewExtractor(cfg *Config) *Extractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Extractor{
		client:      openai.NewClientWithConfig(clientCfg),
		name:        name,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		configured:  cfg.APIKey != "",
		logger:      log,
	}
}

// Name implements extraction.Provider.
func (e *Extractor) Name() string { return e.name }

// Configured implements extraction.Provider.
func (e *Extractor) Configured() bool { return e.configured }

// Extract asks the model for filters in JSON mode and parses the reply.
func (e *Extractor) Extract(ctx context.Context, query string, qctx domext.QueryContext) (domext.Result, error) {
	if !e.configured {
		return domext.Result{}, domain.ErrProviderNotConfigured
	}

	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: llmprompt.SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: llmprompt.UserPrompt(query, qctx)},
		},
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domext.Result{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return domext.Result{}, llmprompt.ErrEmptyReply
	}

	content := resp.Choices[0].Message.Content
	e.logger.Debug("openai raw reply", zap.String("provider", e.name), zap.String("reply", content))

	result, err := llmprompt.Parse(content)
	if err != nil {
		return domext.Result{}, err
	}

	model := resp.Model
	if model == "" {
		model = e.model
	}
	result.Metadata = domext.Metadata{
		Provider: e.name,
		Model:    model,
		Tokens: domext.Tokens{
			Input:  resp.Usage.PromptTokens,
			Output: resp.Usage.CompletionTokens,
		},
	}
	return result, nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors wrap domain.ErrProviderError.
func parseAPIError(err error) error {
	wrap := domain.ErrProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("chat API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("chat API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("chat request failed: %v: %w", err, wrap)
}

// extractDetail reads the "detail" field some OpenAI-compatible gateways return.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
