package analyzer

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ai-visibility/backend/readability"
	"github.com/ai-visibility/backend/signals"
)

// Base offsets of the category scores.
const (
	contentQualityBase    = 50
	relevanceBase         = 45
	sourceCredibilityBase = 55
	contentStructureBase  = 30
	freshnessBase         = 40
	engagementBase        = 45
	technicalSEOBase      = 40
)

var (
	videoEmbedPattern  = regexp.MustCompile(`(youtube.com|vimeo.com)`)
	contactLinkPattern = regexp.MustCompile(`(?i)(contact|about|team)`)
	viewportPattern    = regexp.MustCompile(`(?i)width=device-width`)
	socialSharePattern = regexp.MustCompile(`(?i)(facebook.com/sharer|twitter.com/share|linkedin.com/share)`)

	ctaPhrases = []string{"buy", "shop", "learn more", "sign up", "contact", "get started"}
)

// pageContext is everything the category checks read.
type pageContext struct {
	doc             *goquery.Document
	url             string
	host            string
	headers         http.Header
	title           string
	metaDescription string
	mainText        string
	keywords        []string
	now             time.Time
}

// findingList accumulates a category's score delta and its findings.
type findingList struct {
	score    float64
	findings []string
}

func (f *findingList) add(delta float64, format string, args ...any) {
	f.score += delta
	if len(args) == 0 {
		f.findings = append(f.findings, format)
		return
	}
	f.findings = append(f.findings, fmt.Sprintf(format, args...))
}

func (f *findingList) note(format string, args ...any) {
	f.add(0, format, args...)
}

func (f *findingList) result(base float64) ScoreResult {
	return ScoreResult{Score: signals.Clamp(f.score + base), Findings: f.findings}
}

func countVideos(doc *goquery.Document) int {
	videos := doc.Find("video").Length()
	doc.Find("iframe[src]").Each(func(_ int, s *goquery.Selection) {
		if src, _ := s.Attr("src"); videoEmbedPattern.MatchString(src) {
			videos++
		}
	})
	return videos
}

func hasViewport(doc *goquery.Document) bool {
	found := false
	doc.Find(`meta[name="viewport"][content]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		content, _ := s.Attr("content")
		found = viewportPattern.MatchString(content)
		return !found
	})
	return found
}

func scoreContentQuality(pc *pageContext) ScoreResult {
	var f findingList

	stats := readability.Estimate(pc.mainText)
	switch words := stats.WordCount; {
	case words < 200:
		f.add(-20, "Low word count (%d words). Content may be too short.", words)
	case words < 500:
		f.add(10, "Moderate word count (%d words).", words)
	default:
		f.add(20, "Good word count (%d words).", words)
	}

	grade := int(stats.GradeLevel)
	switch {
	case grade <= 8:
		f.add(15, "Excellent readability (Flesch-Kincaid: %d).", grade)
	case grade <= 12:
		f.add(10, "Good readability (Flesch-Kincaid: %d).", grade)
	default:
		f.add(-10, "Readability may be challenging (Flesch-Kincaid: %d).", grade)
	}

	images := pc.doc.Find("img").Length()
	videos := countVideos(pc.doc)
	if images > 0 || videos > 0 {
		f.add(15, "Multimedia detected (images: %d, videos: %d).", images, videos)
	} else {
		f.add(-5, "No multimedia detected. Consider adding images/videos.")
	}

	f.note("Keyword density and duplicate content detection not fully implemented.")
	return f.result(contentQualityBase)
}

func scoreRelevanceAndIntent(pc *pageContext) ScoreResult {
	var f findingList

	if containsAny(strings.ToLower(pc.title), pc.keywords) {
		f.add(20, "Keywords found in page title.")
	} else {
		f.note("No prominent keywords found in page title.")
	}

	headings := make([]string, 0)
	pc.doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		headings = append(headings, s.Text())
	})
	if containsAny(strings.ToLower(strings.Join(headings, " ")), pc.keywords) {
		f.add(20, "Keywords found in headings (H1-H3).")
	} else {
		f.note("No prominent keywords found in headings.")
	}

	if containsAny(strings.ToLower(pc.metaDescription), pc.keywords) &&
		containsAny(strings.ToLower(pc.mainText), pc.keywords) {
		f.add(15, "Content aligns with meta description and keywords.")
	} else {
		f.note("Content may not fully align with meta description/keywords.")
	}

	f.note("Topic clustering, semantic relevance, and schema markup presence analysis pending.")
	return f.result(relevanceBase)
}

func scoreSourceCredibility(pc *pageContext) ScoreResult {
	var f findingList

	if strings.HasPrefix(pc.url, "https://") {
		f.add(20, "SSL/TLS certificate detected (HTTPS).")
	} else {
		f.add(-10, "No SSL/TLS certificate detected (HTTP). This negatively impacts credibility.")
	}

	contactLinks := pc.doc.Find("a[href]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		return contactLinkPattern.MatchString(href)
	})
	if contactLinks.Length() > 0 {
		f.add(15, "Contact/About/Team links found.")
	} else {
		f.add(-5, "No obvious Contact/About/Team links found.")
	}

	external := 0
	pc.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.HasPrefix(href, "http") {
			return
		}
		host := ""
		if u, err := url.Parse(href); err == nil {
			host = u.Host
		}
		if host != pc.host {
			external++
		}
	})
	switch {
	case external > 5:
		f.add(10, "Numerous external links (%d) detected. Quality check pending.", external)
	case external > 0:
		f.add(5, "Some external links (%d) detected. Quality check pending.", external)
	default:
		f.note("Few or no external links detected.")
	}

	f.note("Domain authority, social proof, and domain age analysis pending (requires external APIs).")
	return f.result(sourceCredibilityBase)
}

func scoreContentStructure(pc *pageContext) ScoreResult {
	var f findingList

	switch h1 := pc.doc.Find("h1").Length(); {
	case h1 == 1:
		f.add(20, "Single H1 tag found (good practice).")
	case h1 > 1:
		f.add(-10, "Multiple H1 tags found. Consider using only one H1.")
	default:
		f.add(-15, "No H1 tag found. Essential for SEO and structure.")
	}

	if h2 := pc.doc.Find("h2").Length(); h2 > 0 {
		f.add(10, "%d H2 tags found.", h2)
	}
	if h3 := pc.doc.Find("h3").Length(); h3 > 0 {
		f.add(5, "%d H3 tags found.", h3)
	}

	if schemas := pc.doc.Find(`script[type="application/ld+json"]`).Length(); schemas > 0 {
		f.add(20, "%d JSON-LD schema script(s) detected.", schemas)
	} else {
		f.note("No JSON-LD schema markup detected.")
	}

	if hasViewport(pc.doc) {
		f.add(15, "Mobile viewport meta tag detected.")
	} else {
		f.add(-10, "Mobile viewport meta tag missing. Page may not be mobile-friendly.")
	}

	f.note("Semantic HTML, internal linking, and navigation clarity analysis pending.")
	return f.result(contentStructureBase)
}

func scoreFreshness(pc *pageContext) ScoreResult {
	var f findingList

	if lastModified := pc.headers.Get("Last-Modified"); lastModified != "" {
		modified, err := parseLastModified(lastModified)
		if err != nil {
			f.note("Could not parse Last-Modified header: %s.", lastModified)
		} else {
			age := int(math.Floor(pc.now.UTC().Sub(modified).Hours() / 24))
			switch {
			case age < 90:
				f.add(25, "Content recently modified (%d days ago).", age)
			case age < 365:
				f.add(15, "Content modified within the last year (%d days ago).", age)
			default:
				f.add(-10, "Content last modified over a year ago (%d days ago). May be outdated.", age)
			}
		}
	} else {
		f.note("No Last-Modified HTTP header found.")
	}

	pubDate := pc.doc.Find(`meta[property="article:published_time"], meta[name="date"], time`)
	if pubDate.Length() > 0 {
		f.add(10, "Publication date metadata detected.")
	} else {
		f.note("No explicit publication date metadata found.")
	}

	f.note("Content update frequency, outdated content detection, and news/blog recency analysis pending.")
	return f.result(freshnessBase)
}

func parseLastModified(value string) (time.Time, error) {
	t, err := time.Parse(http.TimeFormat, value)
	if err != nil {
		return time.Time{}, &ParseError{Value: value, Err: err}
	}
	return t, nil
}

func scoreUserEngagement(pc *pageContext) ScoreResult {
	var f findingList

	ctas := pc.doc.Find("a, button").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return containsAny(strings.ToLower(s.Text()), ctaPhrases)
	}).Length()
	if ctas > 0 {
		f.add(20, "Call-to-action elements detected (%d).", ctas)
	} else {
		f.add(-10, "Few or no clear call-to-action elements found.")
	}

	if forms := pc.doc.Find("form").Length(); forms > 0 {
		f.add(15, "%d form(s) detected (e.g., contact, newsletter).", forms)
	} else {
		f.note("No forms detected on the page.")
	}

	shares := pc.doc.Find("a[href]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		return socialSharePattern.MatchString(href)
	}).Length()
	if shares > 0 {
		f.add(10, "Social sharing buttons detected.")
	} else {
		f.note("No obvious social sharing buttons found.")
	}

	if videos := countVideos(pc.doc); videos > 0 {
		f.add(10, "Embedded video content detected (%d).", videos)
	} else {
		f.note("No embedded video content found.")
	}

	f.note("Comments/discussion sections, internal link engagement, and time-on-page estimation analysis pending.")
	return f.result(engagementBase)
}

func scoreTechnicalSEO(pc *pageContext) ScoreResult {
	var f findingList

	if hasViewport(pc.doc) {
		f.add(15, "Mobile viewport meta tag present (indicates mobile responsiveness).")
	} else {
		f.add(-10, "Mobile viewport meta tag missing. Page may not be mobile-friendly.")
	}

	if href, _ := pc.doc.Find(`link[rel~="canonical"]`).First().Attr("href"); href != "" {
		f.add(15, "Canonical tag found: %s.", href)
	} else {
		f.note("No canonical tag found. May lead to duplicate content issues.")
	}

	images := pc.doc.Find("img")
	total := images.Length()
	withAlt := images.FilterFunction(func(_ int, s *goquery.Selection) bool {
		alt, _ := s.Attr("alt")
		return alt != ""
	}).Length()
	if total > 0 {
		ratio := float64(withAlt) / float64(total)
		switch {
		case ratio > 0.75:
			f.add(10, "Most images have alt text (%d/%d).", withAlt, total)
		case ratio > 0.25:
			f.add(5, "Some images have alt text (%d/%d).", withAlt, total)
		default:
			f.note("Few images have alt text (%d/%d). Consider adding alt text for accessibility and SEO.", withAlt, total)
		}
	} else {
		f.note("No images found on the page.")
	}

	f.note("Page load speed, Core Web Vitals, XML sitemap, Robots.txt, and 404 errors analysis pending (requires external tools/further crawling).")
	return f.result(technicalSEOBase)
}

// overallScore is the rounded mean of the category scores; halves round to even.
func overallScore(categories []ScoreResult) OverallScore {
	if len(categories) == 0 {
		return OverallScore{Interpretation: OverallInterpretation}
	}
	sum := 0.0
	for _, c := range categories {
		sum += c.Score
	}
	return OverallScore{
		Value:          int(math.RoundToEven(sum / float64(len(categories)))),
		Interpretation: OverallInterpretation,
	}
}
