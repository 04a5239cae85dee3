package analyzer

import "time"

// OverallInterpretation describes how the overall page score is derived.
const OverallInterpretation = "Aggregated score based on detailed analysis of 7 categories."

// ScoreResult is the outcome of one page category check
type ScoreResult struct {
	Score    float64  `json:"score"`
	Findings []string `json:"findings"`
}

type OverallScore struct {
	Value          int    `json:"value"`
	Interpretation string `json:"interpretation"`
}

// PageAnalysis represents the complete analysis of a webpage
type PageAnalysis struct {
	ID                      string       `json:"id,omitempty"`
	URL                     string       `json:"url"`
	Title                   string       `json:"title"`
	MetaDescription         string       `json:"meta_description"`
	Keywords                []string     `json:"keywords,omitempty"`
	OverallScore            OverallScore `json:"overall_score"`
	ContentQuality          ScoreResult  `json:"content_quality"`
	RelevanceAndIntent      ScoreResult  `json:"relevance_and_intent"`
	SourceCredibility       ScoreResult  `json:"source_credibility"`
	ContentStructure        ScoreResult  `json:"content_structure"`
	FreshnessAndTimeliness  ScoreResult  `json:"freshness_and_timeliness"`
	UserEngagementPotential ScoreResult  `json:"user_engagement_potential"`
	TechnicalSEO            ScoreResult  `json:"technical_seo"`
	AnalyzedAt              time.Time    `json:"analyzed_at"`
}

// Categories returns the seven category results in reporting order.
func (p *PageAnalysis) Categories() []ScoreResult {
	return []ScoreResult{
		p.ContentQuality,
		p.RelevanceAndIntent,
		p.SourceCredibility,
		p.ContentStructure,
		p.FreshnessAndTimeliness,
		p.UserEngagementPotential,
		p.TechnicalSEO,
	}
}
