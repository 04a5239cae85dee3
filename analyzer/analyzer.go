// Package analyzer fetches a web page and scores it along seven on-page
// quality categories.
package analyzer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ai-visibility/backend/cache"
	"github.com/ai-visibility/backend/metrics"
	"github.com/ai-visibility/backend/stats"
)

const cacheType = "page"

// Analyzer performs page analysis for a given URL
type Analyzer struct {
	fetcher PageFetcher
	cache   cache.Cache
	stats   *stats.Storage
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithCache caches analyses keyed by URL and keyword list.
func WithCache(c cache.Cache) Option {
	return func(a *Analyzer) { a.cache = c }
}

// WithStats counts cache hits and misses in s.
func WithStats(s *stats.Storage) Option {
	return func(a *Analyzer) { a.stats = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock overrides the time source used for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// New creates an Analyzer that retrieves pages with fetcher
func New(fetcher PageFetcher, opts ...Option) *Analyzer {
	a := &Analyzer{
		fetcher: fetcher,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.Named("analyzer")
	return a
}

// Analyze returns the analysis of rawURL, served from the cache when possible.
// Non-empty keywords replace the keywords derived from the title and meta
// description. A fetch failure aborts the analysis with no partial result.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string, keywords []string) (*PageAnalysis, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	keywords = normalizeKeywords(keywords)

	key := cache.PageKey(rawURL, keywords)
	if a.cache != nil {
		var cached PageAnalysis
		found, err := a.cache.Get(ctx, key, &cached)
		if err != nil {
			a.logger.Warn("page cache lookup failed", zap.String("url", rawURL), zap.Error(err))
		}
		a.recordLookup(found)
		if found {
			a.logger.Debug("page analysis served from cache", zap.String("url", rawURL))
			return &cached, nil
		}
	}

	analysis, err := a.AnalyzeWithContext(ctx, rawURL, keywords)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, analysis); err != nil {
			a.logger.Warn("failed to cache page analysis", zap.String("url", rawURL), zap.Error(err))
		}
	}
	return analysis, nil
}

func (a *Analyzer) recordLookup(hit bool) {
	metrics.RecordCacheLookup(cacheType, hit)
	if a.stats != nil {
		a.stats.RecordPageLookup(hit)
	}
}

// AnalyzeWithContext fetches and scores rawURL without consulting the cache.
func (a *Analyzer) AnalyzeWithContext(ctx context.Context, rawURL string, keywords []string) (*PageAnalysis, error) {
	start := time.Now()
	a.logger.Info("analyzing page", zap.String("url", rawURL))

	page, err := a.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		metrics.AnalysisTotal.WithLabelValues(cacheType, "fetch_error").Inc()
		a.logger.Warn("failed to fetch page", zap.String("url", rawURL), zap.Error(err))
		return nil, err
	}

	analysis, err := Score(rawURL, page, keywords, a.now())
	if err != nil {
		metrics.AnalysisTotal.WithLabelValues(cacheType, "error").Inc()
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.AnalysisTotal.WithLabelValues(cacheType, "success").Inc()
	metrics.AnalysisDuration.WithLabelValues(cacheType).Observe(elapsed.Seconds())
	metrics.OverallScore.WithLabelValues(cacheType).Observe(float64(analysis.OverallScore.Value))
	a.logger.Info("page analysis completed",
		zap.String("url", rawURL),
		zap.Int("overall_score", analysis.OverallScore.Value),
		zap.Duration("duration", elapsed),
	)
	return analysis, nil
}

// Score runs the seven category checks over an already fetched page. Empty
// keywords are derived from the page's title and meta description.
func Score(rawURL string, page *Page, keywords []string, now time.Time) (*PageAnalysis, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	mainText, err := extractMainText(page.HTML)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	pc := &pageContext{
		doc:             doc,
		url:             rawURL,
		headers:         page.Headers,
		title:           extractTitle(doc),
		metaDescription: extractMetaDescription(doc),
		mainText:        mainText,
		keywords:        keywords,
		now:             now,
	}
	if u, err := url.Parse(rawURL); err == nil {
		pc.host = u.Host
	}
	if len(pc.keywords) == 0 {
		pc.keywords = extractKeywords(pc.title, pc.metaDescription)
	}

	analysis := &PageAnalysis{
		URL:                     rawURL,
		Title:                   pc.title,
		MetaDescription:         pc.metaDescription,
		Keywords:                pc.keywords,
		ContentQuality:          scoreContentQuality(pc),
		RelevanceAndIntent:      scoreRelevanceAndIntent(pc),
		SourceCredibility:       scoreSourceCredibility(pc),
		ContentStructure:        scoreContentStructure(pc),
		FreshnessAndTimeliness:  scoreFreshness(pc),
		UserEngagementPotential: scoreUserEngagement(pc),
		TechnicalSEO:            scoreTechnicalSEO(pc),
		AnalyzedAt:              now.UTC(),
	}
	analysis.OverallScore = overallScore(analysis.Categories())
	return analysis, nil
}
