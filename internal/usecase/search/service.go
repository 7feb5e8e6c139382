package search

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"go.uber.org/zap"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/filter"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/resource"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/vocabulary"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/logger"
)

// DefaultFallbackQuery is sent when a search has neither keywords nor service types.
const DefaultFallbackQuery = "mental health services"

// Policy fills in a search the backend would otherwise reject as empty.
type Policy struct {
	// CrisisServiceTypes are requested for immediate_crisis searches.
	CrisisServiceTypes []string
	// FallbackQuery is used for every other search.
	FallbackQuery string
}

// Service runs resource searches and lookups.
type Service struct {
	backend   Backend
	resources ResourceReader
	policy    Policy
	now       func() time.Time
}

// New creates a search service. Empty policy fields get defaults.
func New(backend Backend, resources ResourceReader, policy Policy) *Service {
	if len(policy.CrisisServiceTypes) == 0 {
		policy.CrisisServiceTypes = slices.Clone(vocabulary.CrisisCodes)
	}
	if policy.FallbackQuery == "" {
		policy.FallbackQuery = DefaultFallbackQuery
	}
	return &Service{
		backend:   backend,
		resources: resources,
		policy:    policy,
		now:       time.Now,
	}
}

// Search requires a location or keywords, applies the policy defaults and
// calls the backend. applied_filters reflect what was actually sent.
func (s *Service) Search(ctx context.Context, f filter.Filters) (resource.SearchResponse, error) {
	if !f.HasCriteria() {
		return resource.SearchResponse{}, domain.ErrMissingCriteria
	}

	start := s.now()
	dispatch := s.applyPolicy(ctx, f.Clone())

	resp, err := s.backend.Search(ctx, dispatch)
	if err != nil {
		return resource.SearchResponse{}, fmt.Errorf("search resources: %w", err)
	}

	end := s.now()
	resp.Metadata.ExecutionTimeMs = end.Sub(start).Milliseconds()
	resp.Metadata.Timestamp = end.UTC()
	if resp.Items == nil {
		resp.Items = []resource.Resource{}
	}
	return resp, nil
}

// GetResource validates the id and fetches one resource.
func (s *Service) GetResource(ctx context.Context, id string) (resource.Detail, error) {
	if id == "" || !govalidator.IsUUID(strings.ToLower(id)) {
		return resource.Detail{}, fmt.Errorf("%w: %q", domain.ErrInvalidResourceID, id)
	}
	detail, err := s.resources.GetResource(ctx, id)
	if err != nil {
		return resource.Detail{}, fmt.Errorf("get resource %s: %w", id, err)
	}
	return detail, nil
}

func (s *Service) applyPolicy(ctx context.Context, f filter.Filters) filter.Filters {
	if strings.TrimSpace(f.Keywords) == "" {
		f.Keywords = ""
	}
	if f.Keywords != "" || len(f.ServiceTypes) > 0 {
		return f
	}
	if f.CarePhase == filter.CarePhaseImmediateCrisis {
		f.ServiceTypes = slices.Clone(s.policy.CrisisServiceTypes)
	} else {
		f.Keywords = s.policy.FallbackQuery
	}
	logger.FromContext(ctx).Debug("Applied search defaults",
		zap.Strings("service_types", f.ServiceTypes),
		zap.String("keywords", f.Keywords),
	)
	return f
}
