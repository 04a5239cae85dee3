package visibility

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ai-visibility/backend/metrics"
)

// Repository persists company analyses.
type Repository interface {
	// SaveCompanyAnalysis stores a new record and assigns analysis.ID.
	SaveCompanyAnalysis(ctx context.Context, analysis *CompanyAnalysis) error
	// LatestCompanyAnalysis returns the newest analysis stored for company.
	LatestCompanyAnalysis(ctx context.Context, company string) (*CompanyAnalysis, bool, error)
}

// LookupRecorder counts lookups of stored analyses.
type LookupRecorder interface {
	RecordCompanyLookup(hit bool)
}

// Service serves stored analyses and runs new ones on a miss.
type Service struct {
	aggregator *Aggregator
	repo       Repository
	lookups    LookupRecorder
	logger     *zap.Logger
}

func NewService(aggregator *Aggregator, repo Repository, lookups LookupRecorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		aggregator: aggregator,
		repo:       repo,
		lookups:    lookups,
		logger:     logger.Named("visibility"),
	}
}

// Analyze returns the latest stored analysis of company, or runs and stores a
// new one when none exists or refresh is set. cached reports whether the
// result came from the repository.
func (s *Service) Analyze(ctx context.Context, company string, refresh bool) (analysis *CompanyAnalysis, cached bool, err error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, false, ErrEmptyCompany
	}

	if !refresh {
		existing, found, err := s.repo.LatestCompanyAnalysis(ctx, company)
		if err != nil {
			return nil, false, fmt.Errorf("load analysis: %w", err)
		}
		s.recordLookup(found)
		if found {
			s.logger.Debug("company analysis served from store", zap.String("company", company))
			return existing, true, nil
		}
	}

	analysis, err = s.aggregator.AnalyzeCompany(ctx, company)
	if err != nil {
		return nil, false, err
	}
	if err := s.repo.SaveCompanyAnalysis(ctx, analysis); err != nil {
		return nil, false, fmt.Errorf("save analysis: %w", err)
	}
	return analysis, false, nil
}

func (s *Service) recordLookup(hit bool) {
	metrics.RecordCacheLookup("company", hit)
	if s.lookups != nil {
		s.lookups.RecordCompanyLookup(hit)
	}
}
