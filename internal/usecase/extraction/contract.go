package extraction

import (
	"context"

	domext "github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/extraction"
)

// Provider turns a free-text query into filters. A provider reporting
// Configured() == false is skipped without counting as a failure.
type Provider interface {
	Name() string
	Configured() bool
	Extract(ctx context.Context, query string, qctx domext.QueryContext) (domext.Result, error)
}

// Corrector repairs extracted filters before they leave the service.
type Corrector interface {
	Validate(ctx context.Context, result domext.Result, originalQuery string) domext.Result
}
