package visibility

import (
	"context"
	"fmt"

	"github.com/ai-visibility/backend/signals"
	"github.com/ai-visibility/backend/sources"
)

// Query templates; %s is the company name.
var (
	intentQueries = []string{
		"What does %s do?",
		"Tell me about %s's services",
		"What is %s known for?",
		"How does %s compare to competitors?",
	}
	sourcesQuery    = "List reliable and credible sources for information about %s"
	structureQuery  = "Analyze the structure and organization of %s's online content"
	engagementQuery = "How engaging and actionable is information about %s?"
)

// Scorer grades a platform's answers about a company for one methodology.
type Scorer struct {
	registry *Registry
}

func NewScorer(registry *Registry) *Scorer {
	return &Scorer{registry: registry}
}

// Score runs methodology m against platform p. A provider failure yields a
// zero score whose comment names the error; the error is also returned so
// callers can record it.
func (s *Scorer) Score(ctx context.Context, company string, p Platform, m Methodology) (MethodologyScore, error) {
	provider, err := s.registry.Provider(p)
	if err != nil {
		return failedScore(m, err), err
	}

	ask := func(template string) (string, error) {
		answer, err := provider.Query(ctx, fmt.Sprintf(template, company), p, company)
		if err != nil {
			return "", &ProviderError{Platform: p, Methodology: m, Err: err}
		}
		return answer, nil
	}

	var result MethodologyScore
	switch m {
	case CIDR:
		result, err = scoreIntent(company, ask)
	case SCVS:
		result, err = scoreSources(ask)
	case ACSO:
		result, err = scoreStructure(ask)
	case UIFL:
		result, err = scoreEngagement(ask)
	default:
		return MethodologyScore{Comment: "Unknown methodology"}, fmt.Errorf("unknown methodology %q", m)
	}
	if err != nil {
		return failedScore(m, err), err
	}
	return result, nil
}

func failedScore(m Methodology, err error) MethodologyScore {
	return MethodologyScore{
		Score:   0,
		Comment: fmt.Sprintf("Error calculating %s score: %v", m.Label(), err),
	}
}

type askFunc func(template string) (string, error)

func scoreIntent(company string, ask askFunc) (MethodologyScore, error) {
	total := 0.0
	for _, template := range intentQueries {
		answer, err := ask(template)
		if err != nil {
			return MethodologyScore{}, err
		}
		total += (signals.Relevance(answer, company) +
			signals.Completeness(answer) +
			signals.Accuracy(answer) +
			signals.Context(answer)) / 4
	}

	score := signals.Clamp(total / float64(len(intentQueries)))
	return MethodologyScore{
		Score: score,
		Comment: fmt.Sprintf("Intent understanding score based on %d diverse queries. Average response quality: %.1f/100",
			len(intentQueries), score),
	}, nil
}

func scoreSources(ask askFunc) (MethodologyScore, error) {
	answer, err := ask(sourcesQuery)
	if err != nil {
		return MethodologyScore{}, err
	}

	found := sources.Extract(answer)
	credibility := sources.Credibility(found)
	verifiability := sources.Verifiability(found)
	return MethodologyScore{
		Score: (credibility + verifiability) / 2,
		Comment: fmt.Sprintf("Found %d sources. Credibility: %.1f, Verifiability: %.1f",
			len(found), credibility, verifiability),
	}, nil
}

func scoreStructure(ask askFunc) (MethodologyScore, error) {
	answer, err := ask(structureQuery)
	if err != nil {
		return MethodologyScore{}, err
	}

	readability := signals.ResponseReadability(answer)
	structure := signals.Structure(answer)
	summarizability := signals.Summarizability(answer)
	return MethodologyScore{
		Score: (readability + structure + summarizability) / 3,
		Comment: fmt.Sprintf("Content structure analysis. Readability: %.1f, Structure: %.1f, Summarizability: %.1f",
			readability, structure, summarizability),
	}, nil
}

func scoreEngagement(ask askFunc) (MethodologyScore, error) {
	answer, err := ask(engagementQuery)
	if err != nil {
		return MethodologyScore{}, err
	}

	positivity := signals.Sentiment(answer)
	actionability := signals.Actionability(answer)
	followUp := signals.FollowUp(answer)
	return MethodologyScore{
		Score: (positivity + actionability + followUp) / 3,
		Comment: fmt.Sprintf("Engagement analysis. Positivity: %.1f, Actionability: %.1f, Follow-up potential: %.1f",
			positivity, actionability, followUp),
	}, nil
}
