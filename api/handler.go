// Package api exposes the analyses and the interaction log over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ai-visibility/backend/analyzer"
	"github.com/ai-visibility/backend/cache"
	"github.com/ai-visibility/backend/logging"
	"github.com/ai-visibility/backend/metrics"
	"github.com/ai-visibility/backend/stats"
	"github.com/ai-visibility/backend/store"
	"github.com/ai-visibility/backend/visibility"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100

	// statusClientClosedRequest is recorded when the client went away
	// before a response could be written.
	statusClientClosedRequest = 499
)

type CompanyAnalyzer interface {
	Analyze(ctx context.Context, company string, refresh bool) (*visibility.CompanyAnalysis, bool, error)
}

type PageAnalyzer interface {
	Analyze(ctx context.Context, rawURL string, keywords []string) (*analyzer.PageAnalysis, error)
}

// Store is the persistence the handlers read from and write to.
type Store interface {
	GetCompanyAnalysis(ctx context.Context, id string) (*visibility.CompanyAnalysis, error)
	LatestCompanyAnalysis(ctx context.Context, company string) (*visibility.CompanyAnalysis, bool, error)
	ListCompanyAnalyses(ctx context.Context, page, perPage int) ([]*visibility.CompanyAnalysis, int, error)

	SavePageAnalysis(ctx context.Context, analysis *analyzer.PageAnalysis) error
	GetPageAnalysis(ctx context.Context, id string) (*analyzer.PageAnalysis, error)

	LogInteraction(ctx context.Context, in *store.Interaction) error
	ListInteractions(ctx context.Context, page int) ([]*store.Interaction, int, error)
	GetInteraction(ctx context.Context, id string) (*store.Interaction, error)
	RateInteraction(ctx context.Context, id string, rating int) (*store.Interaction, error)
	InteractionStats(ctx context.Context) (*store.InteractionStats, error)

	Ping(ctx context.Context) error
}

// Deps are the collaborators of a Handler. RequestStats, MonthlyStats and
// PageCache may be nil.
type Deps struct {
	Companies    CompanyAnalyzer
	Pages        PageAnalyzer
	Store        Store
	RequestStats *logging.Statistics
	MonthlyStats *stats.Storage
	PageCache    cache.Cache
	Logger       *zap.Logger
}

type Handler struct {
	companies    CompanyAnalyzer
	pages        PageAnalyzer
	store        Store
	requestStats *logging.Statistics
	monthlyStats *stats.Storage
	pageCache    cache.Cache
	logger       *zap.Logger
	now          func() time.Time
}

func New(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		companies:    d.Companies,
		pages:        d.Pages,
		store:        d.Store,
		requestStats: d.RequestStats,
		monthlyStats: d.MonthlyStats,
		pageCache:    d.PageCache,
		logger:       logger.Named("api"),
		now:          time.Now,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.GET("/health", h.health)
		api.GET("/statistics", h.statistics)

		api.POST("/analyze", h.analyzeCompany)
		api.GET("/analysis", h.listAnalyses)
		api.GET("/analysis/:id", h.getAnalysis)
		api.GET("/analysis/company/:name", h.getCompanyAnalysis)
		api.GET("/platforms", h.platforms)
		api.GET("/methodologies", h.methodologies)

		api.POST("/analyze-url", h.analyzeURL)
		api.GET("/url-analysis/:id", h.getURLAnalysis)

		api.POST("/interactions", h.logInteraction)
		api.GET("/interactions", h.listInteractions)
		api.GET("/interactions/stats", h.interactionStats)
		api.GET("/interactions/:id", h.getInteraction)
		api.POST("/interactions/:id/rating", h.rateInteraction)
	}

	r.GET("/metrics", metrics.Handler())
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// fail maps err onto a status code and error body.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		h.logger.Debug("request canceled by client",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.AbortWithStatus(statusClientClosedRequest)
	case errors.Is(err, store.ErrNotFound):
		errorJSON(c, http.StatusNotFound, "Not found")
	case errors.Is(err, store.ErrInvalidRating):
		errorJSON(c, http.StatusBadRequest, "Invalid rating. Please select a rating between 1 and 5.")
	case errors.Is(err, visibility.ErrEmptyCompany):
		errorJSON(c, http.StatusBadRequest, "Company name is required")
	case errors.Is(err, analyzer.ErrInvalidURL):
		errorJSON(c, http.StatusBadRequest, err.Error())
	case analyzer.IsFetchFailure(err):
		errorJSON(c, http.StatusBadRequest, "Failed to fetch URL: "+err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		errorJSON(c, http.StatusGatewayTimeout, "Analysis timed out")
	default:
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		errorJSON(c, http.StatusInternalServerError, "An unexpected error occurred: "+err.Error())
	}
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func pageCount(total, perPage int) int {
	return (total + perPage - 1) / perPage
}
