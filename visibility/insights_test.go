package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func uniformAnalysis(company string, score float64) *CompanyAnalysis {
	a := &CompanyAnalysis{CompanyName: company, PlatformScores: map[Platform]PlatformScores{}}
	for _, p := range Platforms {
		a.PlatformScores[p] = PlatformScores{}
		for _, m := range Methodologies {
			a.PlatformScores[p][m] = MethodologyScore{Score: score}
		}
	}
	return a
}

func TestInsights_TiesGoToFirstInOrder(t *testing.T) {
	got := Insights(uniformAnalysis("Acme", 50))

	assert.Equal(t,
		"Acme performs best in CIDR with an average score of 50.0/100. "+
			"The area needing most improvement is CIDR with an average score of 50.0/100. "+
			"Highest visibility on chatgpt with an average score of 50.0/100. "+
			"Lowest visibility on chatgpt with an average score of 50.0/100.",
		got)
}

func TestInsights_PicksExtremes(t *testing.T) {
	a := uniformAnalysis("Acme", 50)
	// Raise UIFL and ACSO equally everywhere; UIFL comes later so ACSO wins the tie.
	for _, p := range Platforms {
		a.PlatformScores[p][ACSO] = MethodologyScore{Score: 90}
		a.PlatformScores[p][UIFL] = MethodologyScore{Score: 90}
	}
	a.PlatformScores[Perplexity][SCVS] = MethodologyScore{Score: 0}
	a.PlatformScores[SearchGPT][CIDR] = MethodologyScore{Score: 100}

	got := Insights(a)

	assert.Contains(t, got, "performs best in ACSO with an average score of 90.0/100.")
	assert.Contains(t, got, "most improvement is SCVS with an average score of 40.0/100.")
	assert.Contains(t, got, "Highest visibility on searchgpt with an average score of 82.5/100.")
	assert.Contains(t, got, "Lowest visibility on perplexity with an average score of 57.5/100.")
}

func TestAverages(t *testing.T) {
	a := uniformAnalysis("Acme", 20)
	a.PlatformScores[Claude][CIDR] = MethodologyScore{Score: 70}

	assert.InDelta(t, 30.0, a.MethodologyAverage(CIDR), 1e-9)
	assert.InDelta(t, 32.5, a.PlatformAverage(Claude), 1e-9)
	assert.InDelta(t, 20.0, a.PlatformAverage(ChatGPT), 1e-9)
}
