package backend

import domext "github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/extraction"

// SearchResponse is the backend search payload. Results stay loosely typed
// until the transformer maps them.
type SearchResponse struct {
	Results         []map[string]any `json:"results"`
	Items           []map[string]any `json:"items"`
	Total           *int             `json:"total"`
	AppliedFilters  map[string]any   `json:"applied_filters"`
	ExecutionTimeMs *float64         `json:"execution_time_ms"`
	FromCache       bool             `json:"from_cache"`
}

// rows returns results under either key the backend has used.
func (r SearchResponse) rows() []map[string]any {
	if len(r.Results) > 0 {
		return r.Results
	}
	return r.Items
}

type extractRequest struct {
	Query   string               `json:"query"`
	Context *domext.QueryContext `json:"context,omitempty"`
}

// rawResource is the weakly decoded shape of one backend resource. Values
// may sit at the top level or under match/verification/details.
type rawResource struct {
	ResourceID     string           `mapstructure:"resource_id"`
	ID             string           `mapstructure:"id"`
	Name           string           `mapstructure:"name"`
	Description    string           `mapstructure:"description"`
	Phone          string           `mapstructure:"phone"`
	Website        string           `mapstructure:"website"`
	Address        any              `mapstructure:"address"`
	MatchScore     *float64         `mapstructure:"match_score"`
	MatchReasons   []string         `mapstructure:"match_reasons"`
	Match          *rawMatch        `mapstructure:"match"`
	Verification   *rawVerification `mapstructure:"verification"`
	Provenance     *rawVerification `mapstructure:"provenance"`
	RCS            *float64         `mapstructure:"rcs"`
	LastVerifiedAt string           `mapstructure:"last_verified_at"`
	Details        *rawDetails      `mapstructure:"details"`
	Services       any              `mapstructure:"services"`
	DistanceKm     *float64         `mapstructure:"distance_km"`
	Tier           string           `mapstructure:"tier"`
}

type rawMatch struct {
	Score   *float64 `mapstructure:"score"`
	Reasons []string `mapstructure:"reasons"`
}

type rawVerification struct {
	Source         string   `mapstructure:"source"`
	RCS            *float64 `mapstructure:"rcs"`
	Confidence     *float64 `mapstructure:"confidence"`
	LastVerifiedAt string   `mapstructure:"last_verified_at"`
}

type rawDetails struct {
	Services   any      `mapstructure:"services"`
	DistanceKm *float64 `mapstructure:"distance_km"`
	Tier       string   `mapstructure:"tier"`
	Phone      string   `mapstructure:"phone"`
	Website    string   `mapstructure:"website"`
	Address    any      `mapstructure:"address"`
}
