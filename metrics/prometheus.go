package metrics

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_visibility_http_requests_total",
			Help: "Total HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_visibility_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"route"},
	)

	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_visibility_analysis_duration_seconds",
			Help:    "Analysis duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	AnalysisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_visibility_analysis_total",
			Help: "Total analyses performed",
		},
		[]string{"kind", "status"},
	)

	OverallScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_visibility_overall_score",
			Help:    "Overall scores of completed analyses",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"kind"},
	)

	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_visibility_provider_calls_total",
			Help: "Total provider queries",
		},
		[]string{"platform", "status"},
	)

	ProviderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_visibility_provider_duration_seconds",
			Help:    "Provider query duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"platform"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_visibility_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_visibility_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	InteractionRatings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_visibility_interaction_ratings_total",
			Help: "User ratings of logged AI interactions",
		},
		[]string{"rating"},
	)
)

var initOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more
// than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AnalysisDuration,
			AnalysisTotal,
			OverallScore,
			ProviderCalls,
			ProviderDuration,
			CacheHits,
			CacheMisses,
			InteractionRatings,
		)
	})
}

// RecordCacheLookup counts a hit or miss for cacheType.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	CacheMisses.WithLabelValues(cacheType).Inc()
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
