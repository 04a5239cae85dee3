package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ai-visibility/backend/analyzer"
	"github.com/ai-visibility/backend/cache"
	"github.com/ai-visibility/backend/logging"
	"github.com/ai-visibility/backend/middleware"
	"github.com/ai-visibility/backend/stats"
	"github.com/ai-visibility/backend/store"
	"github.com/ai-visibility/backend/visibility"
)

const cannedAnswer = "Acme is an established leader in the rockets industry. Visit wikipedia.org for more information."

const samplePage = `<html><head><title>Acme Rockets</title>
<meta name="description" content="Rockets for everyone"></head>
<body><h1>Acme Rockets</h1><p>We build rockets.</p></body></html>`

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  *store.Store
	site   *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	monthly, err := stats.NewStorage(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { monthly.Shutdown() })

	registry := visibility.NewRegistry()
	canned := visibility.ProviderFunc(func(context.Context, string, visibility.Platform, string) (string, error) {
		return cannedAnswer, nil
	})
	require.NoError(t, registry.Register(canned, visibility.Platforms...))
	aggregator := visibility.NewAggregator(registry, visibility.WithPacing(0), visibility.WithFailureRecorder(monthly))
	companies := visibility.NewService(aggregator, st, monthly, nil)

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	t.Cleanup(site.Close)

	memory := cache.NewMemory(time.Minute, 10)
	t.Cleanup(func() { memory.Close() })
	pages := analyzer.New(analyzer.NewHTTPFetcher(5*time.Second), analyzer.WithCache(memory), analyzer.WithStats(monthly))

	requestStats := logging.NewStatistics(filepath.Join(dir, "statistics.json"), false, nil)

	router := gin.New()
	router.Use(middleware.StatsMiddleware(requestStats, nil))
	New(Deps{
		Companies:    companies,
		Pages:        pages,
		Store:        st,
		RequestStats: requestStats,
		MonthlyStats: monthly,
		PageCache:    memory,
	}).Register(router)

	return &testServer{router: router, store: st, site: site}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

type analyzeResponse struct {
	Message string                      `json:"message"`
	Data    visibility.CompanyAnalysis `json:"data"`
}

func TestAnalyzeCompany(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/analyze", gin.H{"company_name": " Acme "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created analyzeResponse
	decode(t, w, &created)
	assert.Equal(t, "Analysis completed successfully", created.Message)
	assert.Equal(t, "Acme", created.Data.CompanyName)
	assert.NotEmpty(t, created.Data.ID)
	assert.Len(t, created.Data.PlatformScores, len(visibility.Platforms))
	assert.InDelta(t, 77.5, created.Data.PlatformScores[visibility.Claude][visibility.SCVS].Score, 1e-9)

	w = s.do(t, http.MethodPost, "/api/analyze", gin.H{"company_name": "Acme"})
	require.Equal(t, http.StatusOK, w.Code)
	var cached analyzeResponse
	decode(t, w, &cached)
	assert.Equal(t, "Analysis found in cache", cached.Message)
	assert.Equal(t, created.Data.ID, cached.Data.ID)

	w = s.do(t, http.MethodPost, "/api/analyze", gin.H{"company_name": "Acme", "refresh": true})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/api/analyze", gin.H{"company_name": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Company name is required"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/analyze", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalysisQueries(t *testing.T) {
	s := newTestServer(t)

	var ids []string
	for _, company := range []string{"Acme", "Globex", "Initech"} {
		w := s.do(t, http.MethodPost, "/api/analyze", gin.H{"company_name": company})
		require.Equal(t, http.StatusCreated, w.Code)
		var resp analyzeResponse
		decode(t, w, &resp)
		ids = append(ids, resp.Data.ID)
	}

	w := s.do(t, http.MethodGet, "/api/analysis/"+ids[0], nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got visibility.CompanyAnalysis
	decode(t, w, &got)
	assert.Equal(t, "Acme", got.CompanyName)
	assert.Contains(t, w.Body.String(), `"analysis_date"`)

	w = s.do(t, http.MethodGet, "/api/analysis/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/analysis/company/Globex", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.Equal(t, ids[1], got.ID)

	w = s.do(t, http.MethodGet, "/api/analysis/company/Hooli", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"No analysis found for this company"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/analysis?page=2&per_page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Analyses    []visibility.CompanyAnalysis `json:"analyses"`
		Total       int                          `json:"total"`
		Pages       int                          `json:"pages"`
		CurrentPage int                          `json:"current_page"`
	}
	decode(t, w, &list)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, 2, list.Pages)
	assert.Equal(t, 2, list.CurrentPage)
	require.Len(t, list.Analyses, 1)
}

func TestCatalogs(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/platforms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var platforms []visibility.PlatformInfo
	decode(t, w, &platforms)
	require.Len(t, platforms, 5)
	assert.Equal(t, visibility.PlatformInfo{ID: visibility.ArcSearch, Name: "Arc Search", Provider: "The Browser Company"}, platforms[3])

	w = s.do(t, http.MethodGet, "/api/methodologies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var methodologies []visibility.MethodologyInfo
	decode(t, w, &methodologies)
	require.Len(t, methodologies, 4)
	assert.Equal(t, "Source Credibility & Verifiability Score", methodologies[1].FullName)
}

func TestAnalyzeURL(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/analyze-url", gin.H{"url": s.site.URL + "/", "keywords": []string{"rockets"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var analysis analyzer.PageAnalysis
	decode(t, w, &analysis)
	assert.NotEmpty(t, analysis.ID)
	assert.Equal(t, "Acme Rockets", analysis.Title)
	assert.Equal(t, analyzer.OverallInterpretation, analysis.OverallScore.Interpretation)
	assert.Equal(t, []string{"rockets"}, analysis.Keywords)

	w = s.do(t, http.MethodGet, "/api/url-analysis/"+analysis.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored analyzer.PageAnalysis
	decode(t, w, &stored)
	assert.Equal(t, analysis.OverallScore, stored.OverallScore)
	assert.Equal(t, analysis.TechnicalSEO, stored.TechnicalSEO)

	// A cached result is stored again under a new id.
	w = s.do(t, http.MethodPost, "/api/analyze-url", gin.H{"url": s.site.URL + "/", "keywords": []string{"rockets"}})
	require.Equal(t, http.StatusOK, w.Code)
	var again analyzer.PageAnalysis
	decode(t, w, &again)
	assert.NotEqual(t, analysis.ID, again.ID)
	assert.Equal(t, analysis.OverallScore, again.OverallScore)

	w = s.do(t, http.MethodGet, "/api/url-analysis/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeURL_Errors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/analyze-url", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"URL is required"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/analyze-url", gin.H{"url": "ftp://example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid URL")

	w = s.do(t, http.MethodPost, "/api/analyze-url", gin.H{"url": s.site.URL + "/missing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	decode(t, w, &body)
	require.Len(t, body, 1)
	assert.True(t, strings.HasPrefix(body["error"].(string), "Failed to fetch URL: "))
}

func TestInteractions(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/interactions", gin.H{"user_input": "hi", "ai_response": "hello"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var logged struct {
		Success       bool   `json:"success"`
		InteractionID string `json:"interaction_id"`
	}
	decode(t, w, &logged)
	assert.True(t, logged.Success)
	require.NotEmpty(t, logged.InteractionID)

	w = s.do(t, http.MethodPost, "/api/interactions", gin.H{"user_input": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/api/interactions", gin.H{"user_input": "hi", "ai_response": "a", "rating": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/interactions/"+logged.InteractionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var in store.Interaction
	decode(t, w, &in)
	assert.Equal(t, store.DefaultAIModel, in.AIModel)
	assert.Nil(t, in.Rating)

	w = s.do(t, http.MethodPost, "/api/interactions/"+logged.InteractionID+"/rating", gin.H{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/api/interactions/missing/rating", gin.H{"rating": 3})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/interactions/"+logged.InteractionID+"/rating", gin.H{"rating": 4})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/interactions?page=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Interactions []store.Interaction `json:"interactions"`
		Total        int                 `json:"total"`
		Pages        int                 `json:"pages"`
	}
	decode(t, w, &list)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, 1, list.Pages)
	require.Len(t, list.Interactions, 1)
	require.NotNil(t, list.Interactions[0].Rating)
	assert.Equal(t, 4, *list.Interactions[0].Rating)

	w = s.do(t, http.MethodGet, "/api/interactions/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_interactions":1,"avg_rating":4,"recent_count":1}`, w.Body.String())
}

func TestOperations(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]string
	decode(t, w, &health)
	assert.Equal(t, "healthy", health["status"])
	assert.NotEmpty(t, health["timestamp"])

	s.do(t, http.MethodPost, "/api/analyze", gin.H{"company_name": "Acme"})
	s.do(t, http.MethodPost, "/api/analyze", gin.H{"company_name": "Acme"})

	w = s.do(t, http.MethodGet, "/api/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var statistics struct {
		Requests         map[string]any                `json:"requests"`
		Cache            stats.MonthlyStats            `json:"cache"`
		History          map[string]stats.MonthlyStats `json:"history"`
		PageCacheEntries int                           `json:"page_cache_entries"`
	}
	decode(t, w, &statistics)
	assert.Equal(t, 2.0, statistics.Requests["total_requests"])
	assert.Equal(t, 1, statistics.Cache.CompanyCacheHits)
	assert.Equal(t, 1, statistics.Cache.CompanyCacheMisses)
	require.Len(t, statistics.History, 1)
	assert.Equal(t, statistics.Cache, statistics.History[time.Now().Format("2006-01")])
	assert.Equal(t, 0, statistics.PageCacheEntries)

	s.do(t, http.MethodPost, "/api/analyze-url", gin.H{"url": s.site.URL})
	w = s.do(t, http.MethodGet, "/api/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &statistics)
	assert.Equal(t, 1, statistics.PageCacheEntries)

	w = s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, s.store.Close())
	w = s.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	decode(t, w, &health)
	assert.Equal(t, "unhealthy", health["status"])
}

type companyAnalyzerFunc func(ctx context.Context, company string, refresh bool) (*visibility.CompanyAnalysis, bool, error)

func (f companyAnalyzerFunc) Analyze(ctx context.Context, company string, refresh bool) (*visibility.CompanyAnalysis, bool, error) {
	return f(ctx, company, refresh)
}

func TestFail_ContextErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantBody  string
		wantLog   bool
		wantLevel zapcore.Level
	}{
		{
			name:      "client went away",
			err:       fmt.Errorf("analysis aborted: %w", context.Canceled),
			wantCode:  statusClientClosedRequest,
			wantLog:   true,
			wantLevel: zapcore.DebugLevel,
		},
		{
			name:     "deadline exceeded",
			err:      fmt.Errorf("analysis aborted: %w", context.DeadlineExceeded),
			wantCode: http.StatusGatewayTimeout,
			wantBody: `{"error":"Analysis timed out"}`,
		},
		{
			name:      "unexpected",
			err:       fmt.Errorf("disk on fire"),
			wantCode:  http.StatusInternalServerError,
			wantBody:  `{"error":"An unexpected error occurred: disk on fire"}`,
			wantLog:   true,
			wantLevel: zapcore.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			router := gin.New()
			New(Deps{
				Companies: companyAnalyzerFunc(func(context.Context, string, bool) (*visibility.CompanyAnalysis, bool, error) {
					return nil, false, tt.err
				}),
				Logger: zap.New(core),
			}).Register(router)

			req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"company_name":"Acme"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody == "" {
				assert.Empty(t, w.Body.String())
			} else {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
			if !tt.wantLog {
				assert.Zero(t, logs.Len())
				return
			}
			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.wantLevel, logs.All()[0].Level)
		})
	}
}
