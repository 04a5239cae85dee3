// Package sources finds references to external sources in free text and
// grades how trustworthy that set of sources is.
package sources

import (
	"regexp"
	"strings"

	"github.com/ai-visibility/backend/signals"
)

var (
	urlPattern    = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\\(\\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
	domainPattern = regexp.MustCompile(`\b(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}\b`)
)

// CredibleDomains are publishers whose mention raises a source set's credibility.
var CredibleDomains = []string{"wikipedia.org", "reuters.com", "bloomberg.com", "forbes.com", "wsj.com"}

// Extract returns every URL in text followed by every bare domain-like token.
// The two passes are independent, so a domain inside a URL is reported twice.
func Extract(text string) []string {
	urls := urlPattern.FindAllString(text, -1)
	domains := domainPattern.FindAllString(text, -1)

	out := make([]string, 0, len(urls)+len(domains))
	out = append(out, urls...)
	return append(out, domains...)
}

// Credibility scores the share of sources that point at a known credible
// publisher, offset by 40. No sources scores 40.
func Credibility(sources []string) float64 {
	if len(sources) == 0 {
		return 40
	}

	credible := 0
	for _, src := range sources {
		if isCredible(src) {
			credible++
		}
	}
	return signals.Clamp(float64(credible)/float64(len(sources))*100 + 40)
}

// Verifiability grows with the number of sources cited. No sources scores 30.
func Verifiability(sources []string) float64 {
	if len(sources) == 0 {
		return 30
	}
	return signals.Clamp(float64(len(sources))*15 + 40)
}

func isCredible(source string) bool {
	lower := strings.ToLower(source)
	for _, domain := range CredibleDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}
