package readability

import (
	"math"
	"strings"

	"github.com/jdkato/prose/v2"
)

// DefaultGradeLevel is reported when the text has no words or no sentences.
const DefaultGradeLevel = 12

const vowels = "aeiouy"

// Stats summarizes the complexity of a piece of text
type Stats struct {
	WordCount         int     `json:"word_count"`
	SentenceCount     int     `json:"sentence_count"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	GradeLevel        float64 `json:"flesch_kincaid_grade"`
}

// Estimate computes word, sentence and syllable counts and a Flesch-Kincaid
// grade level for text. Words are case-folded before syllables are counted.
func Estimate(text string) Stats {
	words, sentences := tokenize(text)

	stats := Stats{
		WordCount:     len(words),
		SentenceCount: sentences,
	}
	if stats.WordCount == 0 || stats.SentenceCount == 0 {
		stats.GradeLevel = DefaultGradeLevel
		return stats
	}

	syllables := 0
	for _, w := range words {
		syllables += CountSyllables(w)
	}

	avgSentenceLength := float64(stats.WordCount) / float64(stats.SentenceCount)
	avgSyllables := float64(syllables) / float64(stats.WordCount)

	grade := math.RoundToEven(0.39*avgSentenceLength + 11.8*avgSyllables - 15.59)
	if grade < 0 {
		grade = 0
	}

	stats.AvgSentenceLength = math.Round(avgSentenceLength*100) / 100
	stats.GradeLevel = grade
	return stats
}

// CountSyllables estimates the syllables in a single word by counting vowel
// groups. A trailing silent "e" is dropped, a consonant+"le" ending is counted,
// and every word has at least one syllable.
func CountSyllables(word string) int {
	word = strings.ToLower(word)
	if word == "" {
		return 1
	}

	count := 0
	if isVowel(word[0]) {
		count++
	}
	for i := 1; i < len(word); i++ {
		if isVowel(word[i]) && !isVowel(word[i-1]) {
			count++
		}
	}
	if strings.HasSuffix(word, "e") {
		count--
	}
	if strings.HasSuffix(word, "le") && len(word) > 2 && !isVowel(word[len(word)-3]) {
		count++
	}
	if count <= 0 {
		count = 1
	}
	return count
}

func isVowel(b byte) bool {
	return strings.IndexByte(vowels, b) >= 0
}

// tokenize returns lower-cased word tokens and the number of sentences.
func tokenize(text string) ([]string, int) {
	if strings.TrimSpace(text) == "" {
		return nil, 0
	}

	doc, err := newDocument(text)
	if err != nil {
		// The segmenter only fails on model loading; fall back to whitespace words
		// and a single sentence so scoring can still proceed.
		return strings.Fields(strings.ToLower(text)), 1
	}

	tokens := doc.Tokens()
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Text == "" {
			continue
		}
		words = append(words, strings.ToLower(tok.Text))
	}
	return words, len(doc.Sentences())
}

// Tokenize splits text into lower-cased word tokens the same way Estimate does.
func Tokenize(text string) []string {
	words, _ := tokenize(text)
	return words
}

func newDocument(text string) (*prose.Document, error) {
	return prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
}
