package chi

import (
	"context"

	domext "github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/extraction"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/filter"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/resource"
	healthuc "github.com/alonsovargas3/commonlight-crisis-portal/internal/usecase/health"
)

// Extractor turns a free-text query into filters. It never fails.
type Extractor interface {
	Extract(ctx context.Context, query string, qctx domext.QueryContext) domext.Result
}

// Searcher runs resource searches and lookups.
type Searcher interface {
	Search(ctx context.Context, f filter.Filters) (resource.SearchResponse, error)
	GetResource(ctx context.Context, id string) (resource.Detail, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
