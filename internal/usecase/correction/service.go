// Package correction repairs extracted service types against the canonical
// vocabulary before filters reach the backend.
package correction

import (
	"context"

	"go.uber.org/zap"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/extraction"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/vocabulary"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/logger"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/metrics"
)

// Service validates and corrects extraction results.
type Service struct{}

// New creates a correction service.
func New() *Service { return &Service{} }

// Validate returns a copy of result whose service types are all canonical.
// Aliases are mapped, unknown values dropped with a warning and duplicates
// removed. When no service type survives, keywords fall back to
// originalQuery. Applying Validate twice equals applying it once.
func (s *Service) Validate(ctx context.Context, result extraction.Result, originalQuery string) extraction.Result {
	log := logger.FromContext(ctx)

	out := result
	out.Filters = result.Filters.Clone()

	var corrected []string
	seen := make(map[string]struct{}, len(result.Filters.ServiceTypes))
	add := func(code string) {
		if _, dup := seen[code]; dup {
			return
		}
		seen[code] = struct{}{}
		corrected = append(corrected, code)
	}

	for _, raw := range result.Filters.ServiceTypes {
		value := vocabulary.Normalize(raw)
		if vocabulary.IsCanonical(value) {
			metrics.FilterCorrectionsTotal.WithLabelValues("kept").Inc()
			add(value)
			continue
		}
		if code, ok := vocabulary.Alias(value); ok {
			metrics.FilterCorrectionsTotal.WithLabelValues("aliased").Inc()
			log.Debug("Mapped service type alias", zap.String("value", raw), zap.String("code", code))
			add(code)
			continue
		}
		metrics.FilterCorrectionsTotal.WithLabelValues("dropped").Inc()
		log.Warn("Dropping unknown service type",
			zap.String("value", raw),
			zap.String("provider", result.Metadata.Provider),
		)
	}

	out.Filters.ServiceTypes = corrected
	if len(corrected) == 0 && originalQuery != "" {
		out.Filters.Keywords = originalQuery
	}
	return out
}
