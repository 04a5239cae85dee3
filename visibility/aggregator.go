package visibility

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ai-visibility/backend/metrics"
)

// DefaultPacing is the minimum spacing between two platforms' queries.
const DefaultPacing = time.Second

// FailureRecorder counts failed provider calls.
type FailureRecorder interface {
	RecordProviderFailure()
}

// Aggregator scores a company on every platform and methodology.
type Aggregator struct {
	scorer   *Scorer
	limiter  *rate.Limiter
	failures FailureRecorder
	logger   *zap.Logger
	now      func() time.Time
}

type AggregatorOption func(*Aggregator)

// WithPacing spaces platforms at least pace apart. Zero disables pacing.
func WithPacing(pace time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		if pace <= 0 {
			a.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		a.limiter = rate.NewLimiter(rate.Every(pace), 1)
	}
}

func WithFailureRecorder(r FailureRecorder) AggregatorOption {
	return func(a *Aggregator) { a.failures = r }
}

func WithAggregatorLogger(l *zap.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithAggregatorClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

func NewAggregator(registry *Registry, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		scorer:  NewScorer(registry),
		limiter: rate.NewLimiter(rate.Every(DefaultPacing), 1),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.Named("visibility")
	return a
}

// AnalyzeCompany queries every platform in order, one methodology after
// another. Provider failures only zero the affected methodology; the returned
// error is non-nil only for an empty name or a cancelled context.
func (a *Aggregator) AnalyzeCompany(ctx context.Context, company string) (*CompanyAnalysis, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, ErrEmptyCompany
	}

	start := time.Now()
	a.logger.Info("starting company analysis", zap.String("company", company))

	analysis := &CompanyAnalysis{
		CompanyName:    company,
		AnalyzedAt:     a.now().UTC(),
		PlatformScores: make(map[Platform]PlatformScores, len(Platforms)),
	}

	for _, p := range Platforms {
		if err := a.limiter.Wait(ctx); err != nil {
			metrics.AnalysisTotal.WithLabelValues("company", "cancelled").Inc()
			return nil, err
		}
		a.logger.Debug("analyzing platform", zap.String("company", company), zap.String("platform", string(p)))

		scores := make(PlatformScores, len(Methodologies))
		for _, m := range Methodologies {
			score, err := a.scorer.Score(ctx, company, p, m)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
					return nil, ctxErr
				}
				a.recordFailure(p, m, err)
			}
			scores[m] = score
		}
		analysis.PlatformScores[p] = scores
	}

	analysis.Insights = Insights(analysis)

	elapsed := time.Since(start)
	metrics.AnalysisTotal.WithLabelValues("company", "success").Inc()
	metrics.AnalysisDuration.WithLabelValues("company").Observe(elapsed.Seconds())
	a.logger.Info("company analysis completed",
		zap.String("company", company),
		zap.Duration("duration", elapsed),
	)
	return analysis, nil
}

func (a *Aggregator) recordFailure(p Platform, m Methodology, err error) {
	a.logger.Warn("provider call failed",
		zap.String("platform", string(p)),
		zap.String("methodology", string(m)),
		zap.Error(err),
	)
	if a.failures != nil {
		a.failures.RecordProviderFailure()
	}
}
