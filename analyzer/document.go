package analyzer

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ai-visibility/backend/readability"
)

const (
	noTitle           = "No title found"
	noMetaDescription = "No meta description found"
)

// nonContentSelector matches subtrees excluded from a page's main text.
const nonContentSelector = "script, style, header, footer, nav"

func extractTitle(doc *goquery.Document) string {
	title := doc.Find("title").First()
	if title.Length() == 0 {
		return noTitle
	}
	return strings.TrimSpace(title.Text())
}

// extractMetaDescription prefers the description meta tag and falls back to
// the Open Graph description.
func extractMetaDescription(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		return content
	}
	if content, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		return content
	}
	return noMetaDescription
}

// extractMainText parses rawHTML, drops non-content subtrees and joins the
// remaining trimmed text nodes with single spaces.
func extractMainText(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}
	doc.Find(nonContentSelector).Remove()

	var parts []string
	for _, root := range doc.Nodes {
		collectText(root, &parts)
	}
	return strings.Join(parts, " "), nil
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*parts = append(*parts, text)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// extractKeywords returns the unique alphanumeric, non-stopword tokens of
// title and meta description in first-seen order.
func extractKeywords(title, metaDescription string) []string {
	tokens := readability.Tokenize(title + " " + metaDescription)

	seen := make(map[string]bool, len(tokens))
	keywords := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if seen[tok] || !isAlnum(tok) || stopwords[tok] {
			continue
		}
		seen[tok] = true
		keywords = append(keywords, tok)
	}
	return keywords
}

// normalizeKeywords lower-cases and trims explicit keywords, dropping blanks.
func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// stopwords is the standard English stopword list.
var stopwords = toSet(
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "you're",
	"you've", "you'll", "you'd", "your", "yours", "yourself", "yourselves", "he",
	"him", "his", "himself", "she", "she's", "her", "hers", "herself", "it",
	"it's", "its", "itself", "they", "them", "their", "theirs", "themselves",
	"what", "which", "who", "whom", "this", "that", "that'll", "these", "those",
	"am", "is", "are", "was", "were", "be", "been", "being", "have", "has", "had",
	"having", "do", "does", "did", "doing", "a", "an", "the", "and", "but", "if",
	"or", "because", "as", "until", "while", "of", "at", "by", "for", "with",
	"about", "against", "between", "into", "through", "during", "before",
	"after", "above", "below", "to", "from", "up", "down", "in", "out", "on",
	"off", "over", "under", "again", "further", "then", "once", "here", "there",
	"when", "where", "why", "how", "all", "any", "both", "each", "few", "more",
	"most", "other", "some", "such", "no", "nor", "not", "only", "own", "same",
	"so", "than", "too", "very", "s", "t", "can", "will", "just", "don", "don't",
	"should", "should've", "now", "d", "ll", "m", "o", "re", "ve", "y", "ain",
	"aren", "aren't", "couldn", "couldn't", "didn", "didn't", "doesn",
	"doesn't", "hadn", "hadn't", "hasn", "hasn't", "haven", "haven't", "isn",
	"isn't", "ma", "mightn", "mightn't", "mustn", "mustn't", "needn", "needn't",
	"shan", "shan't", "shouldn", "shouldn't", "wasn", "wasn't", "weren",
	"weren't", "won", "won't", "wouldn", "wouldn't",
)

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
