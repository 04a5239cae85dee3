package middleware

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ai-visibility/backend/logging"
	"github.com/ai-visibility/backend/metrics"
)

// Context keys handlers set so the request is counted as an analysis.
const (
	AnalysisKindKey   = "analysis_kind"
	AnalysisTargetKey = "analysis_target"
)

const saveEvery = 100

// MarkAnalysis tags the request as an analysis of kind for target.
func MarkAnalysis(c *gin.Context, kind, target string) {
	c.Set(AnalysisKindKey, kind)
	c.Set(AnalysisTargetKey, target)
}

// StatsMiddleware tracks visitors, analysis requests and HTTP metrics, and
// saves the statistics every saveEvery requests.
func StatsMiddleware(stats *logging.Statistics, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	var requests atomic.Uint64

	return func(c *gin.Context) {
		start := time.Now()
		stats.TrackVisitor(c.ClientIP())

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()

		if kind := c.GetString(AnalysisKindKey); kind != "" {
			loadTime := float64(elapsed.Milliseconds())
			stats.TrackAnalysis(kind, c.GetString(AnalysisTargetKey), loadTime, status >= 400)
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		if requests.Add(1)%saveEvery == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					logger.Warn("failed to save statistics", zap.Error(err))
				}
			}()
		}
	}
}
