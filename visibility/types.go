// Package visibility scores how well AI assistants know a company. Each
// platform is queried with fixed templates per methodology, the answers are
// graded with lexical heuristics and the grades are rolled up into insights.
package visibility

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrEmptyCompany    = errors.New("company name is required")
)

// Platform identifies an AI assistant.
type Platform string

const (
	ChatGPT    Platform = "chatgpt"
	Claude     Platform = "claude"
	Perplexity Platform = "perplexity"
	ArcSearch  Platform = "arc_search"
	SearchGPT  Platform = "searchgpt"
)

// Platforms lists every platform in reporting order.
var Platforms = []Platform{ChatGPT, Claude, Perplexity, ArcSearch, SearchGPT}

// ParsePlatform resolves a platform id case-insensitively.
func ParsePlatform(id string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(id)))
	for _, known := range Platforms {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, id)
}

// Methodology identifies a scoring rubric.
type Methodology string

const (
	CIDR Methodology = "cidr"
	SCVS Methodology = "scvs"
	ACSO Methodology = "acso"
	UIFL Methodology = "uifl"
)

// Methodologies lists every methodology in reporting order.
var Methodologies = []Methodology{CIDR, SCVS, ACSO, UIFL}

// Label is the upper-case display name, e.g. "CIDR".
func (m Methodology) Label() string {
	return strings.ToUpper(string(m))
}

// MethodologyScore is the result of one methodology on one platform.
type MethodologyScore struct {
	Score   float64 `json:"score"`
	Comment string  `json:"comment"`
}

// PlatformScores holds one score per methodology.
type PlatformScores map[Methodology]MethodologyScore

// CompanyAnalysis is the full result for a company. Only the store assigns
// ID after it is built; re-analysis produces a new value.
type CompanyAnalysis struct {
	ID             string                      `json:"id,omitempty"`
	CompanyName    string                      `json:"company_name"`
	AnalyzedAt     time.Time                   `json:"analysis_date"`
	PlatformScores map[Platform]PlatformScores `json:"platform_scores"`
	Insights       string                      `json:"insights"`
}

// MethodologyAverage is the mean score of m across all platforms.
func (c *CompanyAnalysis) MethodologyAverage(m Methodology) float64 {
	total := 0.0
	for _, p := range Platforms {
		total += c.PlatformScores[p][m].Score
	}
	return total / float64(len(Platforms))
}

// PlatformAverage is the mean score of p across all methodologies.
func (c *CompanyAnalysis) PlatformAverage(p Platform) float64 {
	total := 0.0
	for _, m := range Methodologies {
		total += c.PlatformScores[p][m].Score
	}
	return total / float64(len(Methodologies))
}
