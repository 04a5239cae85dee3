package visibility

import (
	"fmt"
	"strings"
)

// Insights summarizes the best and worst methodology and platform of an
// analysis. Ties go to the entry that comes first in reporting order.
func Insights(analysis *CompanyAnalysis) string {
	bestM, worstM := Methodologies[0], Methodologies[0]
	bestMAvg := analysis.MethodologyAverage(bestM)
	worstMAvg := bestMAvg
	for _, m := range Methodologies[1:] {
		avg := analysis.MethodologyAverage(m)
		if avg > bestMAvg {
			bestM, bestMAvg = m, avg
		}
		if avg < worstMAvg {
			worstM, worstMAvg = m, avg
		}
	}

	bestP, worstP := Platforms[0], Platforms[0]
	bestPAvg := analysis.PlatformAverage(bestP)
	worstPAvg := bestPAvg
	for _, p := range Platforms[1:] {
		avg := analysis.PlatformAverage(p)
		if avg > bestPAvg {
			bestP, bestPAvg = p, avg
		}
		if avg < worstPAvg {
			worstP, worstPAvg = p, avg
		}
	}

	return strings.Join([]string{
		fmt.Sprintf("%s performs best in %s with an average score of %.1f/100.", analysis.CompanyName, bestM.Label(), bestMAvg),
		fmt.Sprintf("The area needing most improvement is %s with an average score of %.1f/100.", worstM.Label(), worstMAvg),
		fmt.Sprintf("Highest visibility on %s with an average score of %.1f/100.", bestP, bestPAvg),
		fmt.Sprintf("Lowest visibility on %s with an average score of %.1f/100.", worstP, worstPAvg),
	}, " ")
}
