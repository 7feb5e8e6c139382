package search

import (
	"context"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/filter"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/resource"
)

// Backend runs a search against the resource backend.
type Backend interface {
	Search(ctx context.Context, f filter.Filters) (resource.SearchResponse, error)
}

// ResourceReader fetches a single resource, possibly from a cache.
type ResourceReader interface {
	GetResource(ctx context.Context, id string) (resource.Detail, error)
}
