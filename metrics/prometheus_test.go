package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("test"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("test"))

	RecordCacheLookup("test", true)
	RecordCacheLookup("test", false)
	RecordCacheLookup("test", false)

	assert.Equal(t, hits+1, testutil.ToFloat64(CacheHits.WithLabelValues("test")))
	assert.Equal(t, misses+2, testutil.ToFloat64(CacheMisses.WithLabelValues("test")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	Init()
	Init()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/metrics", Handler())

	AnalysisTotal.WithLabelValues("page", "success").Inc()

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ai_visibility_analysis_total")
}
