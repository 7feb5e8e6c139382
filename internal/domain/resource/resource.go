// Package resource holds the frontend-facing search result model.
package resource

import (
	"time"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/filter"
)

// Defaults applied when the backend omits a value.
const (
	DefaultMatchScore = 0.5
	UnknownSource     = "unknown"
)

// Provenance records where a resource's data was verified.
type Provenance struct {
	Source         string   `json:"source"`
	RCS            *float64 `json:"rcs,omitempty"`
	LastVerifiedAt string   `json:"last_verified_at,omitempty"`
}

// Resource is one mental-health resource as shown to a crisis worker.
type Resource struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Website      string     `json:"website,omitempty"`
	Address      string     `json:"address,omitempty"`
	MatchScore   float64    `json:"match_score"`
	MatchReasons []string   `json:"match_reasons"`
	Provenance   Provenance `json:"provenance"`
	Services     []string   `json:"services"`
	DistanceKm   *float64   `json:"distance_km,omitempty"`
	Tier         string     `json:"tier,omitempty"`
}

// Metadata describes how a response was produced.
type Metadata struct {
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	FromCache       bool      `json:"from_cache"`
	Timestamp       time.Time `json:"timestamp"`
}

// SearchResponse is the frontend search payload.
type SearchResponse struct {
	Items          []Resource     `json:"items"`
	Total          int            `json:"total"`
	AppliedFilters filter.Filters `json:"applied_filters"`
	Metadata       Metadata       `json:"metadata"`
}

// Detail is a single resource lookup result.
type Detail struct {
	Resource
	FromCache bool `json:"from_cache"`
}
