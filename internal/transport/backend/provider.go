package backend

import (
	"context"
	"fmt"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain"
	domext "github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/extraction"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/transport/llmprompt"
)

// ProviderName is the default name of the backend extraction provider.
const ProviderName = "backend"

// Extractor exposes the backend /extract-filters endpoint as an extraction provider.
type Extractor struct {
	client *Client
	name   string
}

// NewExtractor wraps client as a provider. An empty name becomes "backend".
func NewExtractor(client *Client, name string) *Extractor {
	if name == "" {
		name = ProviderName
	}
	return &Extractor{client: client, name: name}
}

// Name implements extraction.Provider.
func (e *Extractor) Name() string { return e.name }

// Configured implements extraction.Provider.
func (e *Extractor) Configured() bool { return e.client != nil && e.client.baseURL != "" }

// Extract implements extraction.Provider.
func (e *Extractor) Extract(ctx context.Context, query string, qctx domext.QueryContext) (domext.Result, error) {
	if !e.Configured() {
		return domext.Result{}, domain.ErrProviderNotConfigured
	}
	body, err := e.client.ExtractFilters(ctx, query, qctx)
	if err != nil {
		return domext.Result{}, fmt.Errorf("backend extraction: %w: %w", domain.ErrProviderError, err)
	}
	result, err := llmprompt.Parse(string(body))
	if err != nil {
		return domext.Result{}, err
	}
	result.Metadata = domext.Metadata{Provider: e.name}
	return result, nil
}
