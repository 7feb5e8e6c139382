package crisisportal

import (
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/extraction"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/filter"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/resource"
)

// Public aliases of the wire types exchanged with the portal.
type (
	Filters          = filter.Filters
	Location         = filter.Location
	Coordinates      = filter.Coordinates
	QueryContext     = extraction.QueryContext
	ExtractionResult = extraction.Result
	SearchResponse   = resource.SearchResponse
	Resource         = resource.Resource
	ResourceDetail   = resource.Detail
)

// HealthStatus represents the aggregated portal health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}
