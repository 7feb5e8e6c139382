package extraction

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	domext "github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/extraction"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/logger"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedProvider wraps a Provider with budget enforcement, metrics and logging.
type InstrumentedProvider struct {
	inner  Provider
	model  string
	budget BudgetChecker
}

var _ Provider = (*InstrumentedProvider)(nil)

// NewInstrumentedProvider wraps inner. budget may be nil.
func NewInstrumentedProvider(inner Provider, model string, budget BudgetChecker) *InstrumentedProvider {
	return &InstrumentedProvider{inner: inner, model: model, budget: budget}
}

// Name returns the wrapped provider's name.
func (p *InstrumentedProvider) Name() string { return p.inner.Name() }

// Configured reports whether the wrapped provider is usable.
func (p *InstrumentedProvider) Configured() bool { return p.inner.Configured() }

// Extract checks the budget, delegates and records usage.
func (p *InstrumentedProvider) Extract(
	ctx context.Context, query string, qctx domext.QueryContext,
) (domext.Result, error) {
	log := logger.FromContext(ctx).With(zap.String("provider", p.Name()), zap.String("model", p.model))

	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			metrics.ExtractionRequestsTotal.WithLabelValues(p.Name(), p.model, "quota_exceeded").Inc()
			log.Warn("Extraction budget exceeded", zap.Error(err))
			return domext.Result{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	result, err := p.inner.Extract(ctx, query, qctx)
	duration := time.Since(start)

	metrics.ExtractionRequestDuration.WithLabelValues(p.Name(), p.model).Observe(duration.Seconds())

	if err != nil {
		metrics.ExtractionRequestsTotal.WithLabelValues(p.Name(), p.model, "error").Inc()
		log.Warn("Extraction request failed", zap.Duration("duration", duration), zap.Error(err))
		return domext.Result{}, fmt.Errorf("extract: %w", err)
	}

	metrics.ExtractionRequestsTotal.WithLabelValues(p.Name(), p.model, "ok").Inc()
	tokens := result.Metadata.Tokens
	metrics.ExtractionTokensTotal.WithLabelValues(p.Name(), p.model, "input").Add(float64(tokens.Input))
	metrics.ExtractionTokensTotal.WithLabelValues(p.Name(), p.model, "output").Add(float64(tokens.Output))

	if p.budget != nil && tokens.Total() > 0 {
		p.budget.Record(int64(tokens.Total()))
		remaining := metrics.ExtractionBudgetTokensRemaining
		remaining.WithLabelValues(p.Name(), "daily").Set(float64(p.budget.RemainingDaily()))
		remaining.WithLabelValues(p.Name(), "monthly").Set(float64(p.budget.RemainingMonthly()))
	}

	log.Debug("Extraction request completed",
		zap.Duration("duration", duration),
		zap.Int("input_tokens", tokens.Input),
		zap.Int("output_tokens", tokens.Output),
		zap.Float64("confidence", result.Confidence),
	)
	return result, nil
}
