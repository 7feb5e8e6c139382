package backend

import (
	"context"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/filter"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/resource"
)

// Gateway speaks canonical filters and frontend resources on top of the
// raw backend client.
type Gateway struct {
	client      *Client
	transformer *Transformer
}

// NewGateway combines a client with a transformer.
func NewGateway(client *Client, transformer *Transformer) *Gateway {
	return &Gateway{client: client, transformer: transformer}
}

// Search transforms filters, calls the backend and maps the reply back.
func (g *Gateway) Search(ctx context.Context, f filter.Filters) (resource.SearchResponse, error) {
	params, err := g.transformer.ToParams(f)
	if err != nil {
		return resource.SearchResponse{}, err
	}
	raw, err := g.client.SearchResources(ctx, params)
	if err != nil {
		return resource.SearchResponse{}, err
	}
	return g.transformer.FromResponse(raw, f), nil
}

// GetResource fetches and maps one resource.
func (g *Gateway) GetResource(ctx context.Context, id string) (resource.Detail, error) {
	raw, err := g.client.GetResourceByID(ctx, id)
	if err != nil {
		return resource.Detail{}, err
	}
	return resource.Detail{Resource: g.transformer.FromResource(raw)}, nil
}

// HealthCheck pings the backend once.
func (g *Gateway) HealthCheck(ctx context.Context) error {
	return g.client.HealthCheck(ctx)
}
