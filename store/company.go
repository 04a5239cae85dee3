package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ai-visibility/backend/visibility"
)

// SaveCompanyAnalysis inserts a new record and assigns its ID.
func (s *Store) SaveCompanyAnalysis(ctx context.Context, a *visibility.CompanyAnalysis) error {
	scores, err := json.Marshal(a.PlatformScores)
	if err != nil {
		return fmt.Errorf("failed to encode platform scores: %w", err)
	}
	if a.AnalyzedAt.IsZero() {
		a.AnalyzedAt = s.now().UTC()
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO company_analyses (id, company_name, analyzed_at, platform_scores, insights)
		 VALUES (?, ?, ?, ?, ?)`,
		id, a.CompanyName, toUnix(a.AnalyzedAt), string(scores), a.Insights,
	)
	if err != nil {
		return fmt.Errorf("failed to insert company analysis: %w", err)
	}
	a.ID = id
	return nil
}

// GetCompanyAnalysis returns the analysis with the given id.
func (s *Store) GetCompanyAnalysis(ctx context.Context, id string) (*visibility.CompanyAnalysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_name, analyzed_at, platform_scores, insights
		 FROM company_analyses WHERE id = ?`, id)
	return scanCompanyAnalysis(row)
}

// LatestCompanyAnalysis returns the newest analysis for an exact company name.
func (s *Store) LatestCompanyAnalysis(ctx context.Context, company string) (*visibility.CompanyAnalysis, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_name, analyzed_at, platform_scores, insights
		 FROM company_analyses WHERE company_name = ?
		 ORDER BY analyzed_at DESC, rowid DESC LIMIT 1`, company)

	a, err := scanCompanyAnalysis(row)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

// ListCompanyAnalyses returns one page of analyses, newest first, and the
// total number of stored analyses.
func (s *Store) ListCompanyAnalyses(ctx context.Context, page, perPage int) ([]*visibility.CompanyAnalysis, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM company_analyses").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count company analyses: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_name, analyzed_at, platform_scores, insights
		 FROM company_analyses ORDER BY analyzed_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		perPage, offset(page, perPage))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list company analyses: %w", err)
	}
	defer rows.Close()

	analyses := make([]*visibility.CompanyAnalysis, 0, perPage)
	for rows.Next() {
		a, err := scanCompanyAnalysis(rows)
		if err != nil {
			return nil, 0, err
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list company analyses: %w", err)
	}
	return analyses, total, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompanyAnalysis(row scanner) (*visibility.CompanyAnalysis, error) {
	var (
		a          visibility.CompanyAnalysis
		analyzedAt int64
		scores     string
	)
	err := row.Scan(&a.ID, &a.CompanyName, &analyzedAt, &scores, &a.Insights)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read company analysis: %w", err)
	}

	if err := json.Unmarshal([]byte(scores), &a.PlatformScores); err != nil {
		return nil, fmt.Errorf("failed to decode platform scores of %s: %w", a.ID, err)
	}
	a.AnalyzedAt = fromUnix(analyzedAt)
	return &a, nil
}
