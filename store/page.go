package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ai-visibility/backend/analyzer"
)

// SavePageAnalysis stores a copy of analysis under a new id and sets
// analysis.ID to it.
func (s *Store) SavePageAnalysis(ctx context.Context, analysis *analyzer.PageAnalysis) error {
	analysis.ID = uuid.NewString()
	if analysis.AnalyzedAt.IsZero() {
		analysis.AnalyzedAt = s.now().UTC()
	}

	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to encode page analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO page_analyses (id, url, analyzed_at, overall_score, payload) VALUES (?, ?, ?, ?, ?)`,
		analysis.ID, analysis.URL, toUnix(analysis.AnalyzedAt), analysis.OverallScore.Value, string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert page analysis: %w", err)
	}
	return nil
}

func (s *Store) GetPageAnalysis(ctx context.Context, id string) (*analyzer.PageAnalysis, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM page_analyses WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read page analysis: %w", err)
	}

	var analysis analyzer.PageAnalysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode page analysis %s: %w", id, err)
	}
	return &analysis, nil
}
