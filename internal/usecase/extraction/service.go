package extraction

import (
	"context"
	"time"

	"go.uber.org/zap"

	domext "github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/extraction"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/filter"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/keyword"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/logger"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/metrics"
)

// Defaults for the provider chain.
const (
	DefaultTimeout            = 12 * time.Second
	DefaultFallbackConfidence = 0.3
	FallbackModel             = "keyword-rules"
	currentLocationAddress    = "Current location"
)

// Service runs the extraction provider chain: providers in priority order,
// first success wins, and the keyword matcher answers when all fail.
type Service struct {
	providers          []Provider
	corrector          Corrector
	timeout            time.Duration
	fallbackConfidence float64
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds every provider call.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithFallbackConfidence sets the confidence reported for keyword results.
func WithFallbackConfidence(c float64) Option {
	return func(s *Service) {
		if c > 0 {
			s.fallbackConfidence = domext.ClampConfidence(c)
		}
	}
}

// New creates an extraction service. providers are tried in slice order.
func New(providers []Provider, corrector Corrector, opts ...Option) *Service {
	s := &Service{
		providers:          providers,
		corrector:          corrector,
		timeout:            DefaultTimeout,
		fallbackConfidence: DefaultFallbackConfidence,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Providers returns the names of the registered providers in priority order.
func (s *Service) Providers() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	return names
}

// Extract never fails: provider errors are logged and the chain moves on.
// The caller rejects empty queries before calling.
func (s *Service) Extract(ctx context.Context, query string, qctx domext.QueryContext) domext.Result {
	log := logger.FromContext(ctx)

	result, ok := s.tryProviders(ctx, query, qctx)
	if !ok {
		metrics.ExtractionFallbackTotal.Inc()
		log.Info("Using keyword fallback for filter extraction")
		result = s.fallback(query)
	}

	result.OriginalQuery = query
	result.Confidence = domext.ClampConfidence(result.Confidence)
	applyCurrentLocation(&result.Filters, qctx)

	if s.corrector == nil {
		return result
	}
	return s.corrector.Validate(ctx, result, query)
}

func (s *Service) tryProviders(
	ctx context.Context, query string, qctx domext.QueryContext,
) (domext.Result, bool) {
	log := logger.FromContext(ctx)

	for _, p := range s.providers {
		if !p.Configured() {
			log.Debug("Skipping unconfigured extraction provider", zap.String("provider", p.Name()))
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		result, err := p.Extract(callCtx, query, qctx)
		cancel()

		if err != nil {
			log.Warn("Extraction provider failed",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			continue
		}

		if result.Metadata.Provider == "" {
			result.Metadata.Provider = p.Name()
		}
		return result, true
	}
	return domext.Result{}, false
}

func (s *Service) fallback(query string) domext.Result {
	m := keyword.Normalize(query)
	return domext.Result{
		Filters:     m.Filters,
		Explanation: m.Explanation,
		Confidence:  s.fallbackConfidence,
		Metadata: domext.Metadata{
			Provider: domext.ProviderFallback,
			Model:    FallbackModel,
		},
	}
}

// applyCurrentLocation fills a missing location from the caller's position.
func applyCurrentLocation(f *filter.Filters, qctx domext.QueryContext) {
	if f.Location != nil || qctx.CurrentLocation == nil {
		return
	}
	c := *qctx.CurrentLocation
	f.Location = &filter.Location{Address: currentLocationAddress, Coordinates: &c}
}
