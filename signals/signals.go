// Package signals holds the lexical heuristics used to grade free-text
// answers. Every detector is a pure function of its input and returns a value
// in [0,100].
package signals

import (
	"strings"
)

// Marker tables. They are read-only after init.
var (
	uncertaintyMarkers = []string{"might", "could", "possibly", "unclear", "unknown"}
	confidenceMarkers  = []string{"established", "founded", "known for", "specializes"}
	contextMarkers     = []string{"industry", "market", "competitors", "sector", "business"}
	positiveMarkers    = []string{"excellent", "leading", "innovative", "successful", "trusted", "reliable"}
	negativeMarkers    = []string{"poor", "failing", "problematic", "controversial", "declining"}
	actionMarkers      = []string{"visit", "contact", "learn more", "explore", "discover", "check out"}
	followUpMarkers    = []string{"more information", "details", "specific", "particular", "additional"}
	structureMarkers   = []string{"first", "second", "additionally", "furthermore", "in conclusion"}
	keyPhraseMarkers   = []string{"founded", "established", "specializes", "offers", "provides", "known for"}
)

// Clamp bounds a score to [0,100].
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// CountMarkers returns how many markers occur in text as case-insensitive
// substrings. Each marker counts once no matter how often it repeats, and
// markers that overlap in the text are counted independently.
func CountMarkers(text string, markers []string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, m := range markers {
		if strings.Contains(lower, m) {
			count++
		}
	}
	return count
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Relevance measures how often term appears relative to the response length:
// one mention per 50 words is a full score.
func Relevance(text, term string) float64 {
	words := WordCount(text)
	if words == 0 || term == "" {
		return 0
	}

	mentions := strings.Count(strings.ToLower(text), strings.ToLower(term))
	ratio := float64(mentions) / max(1, float64(words)/50)
	return min(1.0, ratio) * 100
}

// Completeness grades a response by its length.
func Completeness(text string) float64 {
	switch words := WordCount(text); {
	case words < 20:
		return 30
	case words < 50:
		return 60
	case words < 200:
		return 90
	default:
		return 100
	}
}

// Accuracy is 60 when hedging language outweighs confident statements,
// otherwise 85.
func Accuracy(text string) float64 {
	if CountMarkers(text, uncertaintyMarkers) > CountMarkers(text, confidenceMarkers) {
		return 60
	}
	return 85
}

// Context rewards mentions of the surrounding market.
func Context(text string) float64 {
	return Clamp(float64(CountMarkers(text, contextMarkers)) * 20)
}

// Sentiment is 80 for positive-leaning text, 40 for negative-leaning text and
// 60 when both sides balance out.
func Sentiment(text string) float64 {
	pos := CountMarkers(text, positiveMarkers)
	neg := CountMarkers(text, negativeMarkers)
	switch {
	case pos > neg:
		return 80
	case neg > pos:
		return 40
	default:
		return 60
	}
}

// Actionability rewards calls to action.
func Actionability(text string) float64 {
	return Clamp(float64(CountMarkers(text, actionMarkers))*30 + 50)
}

// FollowUp rewards cues that invite a further question.
func FollowUp(text string) float64 {
	return Clamp(float64(CountMarkers(text, followUpMarkers))*25 + 60)
}

// ResponseReadability grades the average sentence length of a response, where
// sentences are the pieces between periods. 10-25 words per sentence is
// optimal.
func ResponseReadability(text string) float64 {
	words := WordCount(text)
	if words == 0 {
		return 50
	}

	sentences := len(strings.Split(text, "."))
	avg := float64(words) / float64(sentences)
	switch {
	case avg >= 10 && avg <= 25:
		return 90
	case avg >= 5 && avg <= 35:
		return 70
	default:
		return 50
	}
}

// Structure rewards connectives that signal an organized answer.
func Structure(text string) float64 {
	return Clamp(float64(CountMarkers(text, structureMarkers))*25 + 50)
}

// Summarizability rewards dense, factual key phrases.
func Summarizability(text string) float64 {
	return Clamp(float64(CountMarkers(text, keyPhraseMarkers))*20 + 40)
}
