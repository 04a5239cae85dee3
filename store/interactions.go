package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	InteractionsPerPage = 20
	DefaultAIModel      = "Unknown"
	recentWindow        = 10
)

// Interaction is one logged exchange with an AI assistant.
type Interaction struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	UserInput  string    `json:"user_input"`
	AIResponse string    `json:"ai_response"`
	AIModel    string    `json:"ai_model"`
	Context    string    `json:"context"`
	Rating     *int      `json:"rating"`
}

// InteractionStats summarises the interaction log.
type InteractionStats struct {
	TotalInteractions int     `json:"total_interactions"`
	AvgRating         float64 `json:"avg_rating"`
	RecentCount       int     `json:"recent_count"`
}

func validRating(r int) bool {
	return r >= 1 && r <= 5
}

// LogInteraction stores in, filling in the id, timestamp and model defaults.
func (s *Store) LogInteraction(ctx context.Context, in *Interaction) error {
	if in.Rating != nil && !validRating(*in.Rating) {
		return ErrInvalidRating
	}
	if strings.TrimSpace(in.AIModel) == "" {
		in.AIModel = DefaultAIModel
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = s.now().UTC()
	}
	in.ID = uuid.NewString()

	var rating sql.NullInt64
	if in.Rating != nil {
		rating = sql.NullInt64{Int64: int64(*in.Rating), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_interactions (id, timestamp, user_input, ai_response, ai_model, context, rating)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, toUnix(in.Timestamp), in.UserInput, in.AIResponse, in.AIModel, in.Context, rating,
	)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

// ListInteractions returns one page of interactions, newest first, and the
// total count.
func (s *Store) ListInteractions(ctx context.Context, page int) ([]*Interaction, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ai_interactions").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count interactions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, user_input, ai_response, ai_model, context, rating
		 FROM ai_interactions ORDER BY timestamp DESC, rowid DESC LIMIT ? OFFSET ?`,
		InteractionsPerPage, offset(page, InteractionsPerPage))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	var out []*Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list interactions: %w", err)
	}
	return out, total, nil
}

func (s *Store) GetInteraction(ctx context.Context, id string) (*Interaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, timestamp, user_input, ai_response, ai_model, context, rating
		 FROM ai_interactions WHERE id = ?`, id)
	return scanInteraction(row)
}

// RateInteraction sets the rating of a stored interaction.
func (s *Store) RateInteraction(ctx context.Context, id string, rating int) (*Interaction, error) {
	if !validRating(rating) {
		return nil, ErrInvalidRating
	}

	res, err := s.db.ExecContext(ctx, "UPDATE ai_interactions SET rating = ? WHERE id = ?", rating, id)
	if err != nil {
		return nil, fmt.Errorf("failed to rate interaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.GetInteraction(ctx, id)
}

func (s *Store) InteractionStats(ctx context.Context) (*InteractionStats, error) {
	var (
		total int
		avg   sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*), AVG(rating) FROM ai_interactions").Scan(&total, &avg)
	if err != nil {
		return nil, fmt.Errorf("failed to compute interaction stats: %w", err)
	}

	stats := &InteractionStats{
		TotalInteractions: total,
		RecentCount:       min(total, recentWindow),
	}
	if avg.Valid {
		stats.AvgRating = math.Round(avg.Float64*100) / 100
	}
	return stats, nil
}

func scanInteraction(row scanner) (*Interaction, error) {
	var (
		in     Interaction
		ts     int64
		rating sql.NullInt64
	)
	err := row.Scan(&in.ID, &ts, &in.UserInput, &in.AIResponse, &in.AIModel, &in.Context, &rating)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read interaction: %w", err)
	}

	in.Timestamp = fromUnix(ts)
	if rating.Valid {
		r := int(rating.Int64)
		in.Rating = &r
	}
	return &in, nil
}
