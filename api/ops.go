package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ai-visibility/backend/stats"
)

const pingTimeout = 2 * time.Second

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	timestamp := h.now().UTC().Format(time.RFC3339)
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     err.Error(),
			"timestamp": timestamp,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": timestamp,
	})
}

func (h *Handler) statistics(c *gin.Context) {
	body := gin.H{}
	if h.requestStats != nil {
		body["requests"] = h.requestStats.Snapshot()
	}
	if h.monthlyStats != nil {
		body["cache"] = h.monthlyStats.GetCurrentStats()
		body["history"] = h.monthlyHistory()
	}
	if sized, ok := h.pageCache.(interface{ Len() int }); ok {
		body["page_cache_entries"] = sized.Len()
	}
	c.JSON(http.StatusOK, body)
}

// monthlyHistory returns the retained monthly statistics keyed by month.
func (h *Handler) monthlyHistory() map[string]stats.MonthlyStats {
	months := h.monthlyStats.GetAllMonths()
	history := make(map[string]stats.MonthlyStats, len(months))
	for _, month := range months {
		if monthly, ok := h.monthlyStats.GetMonthlyStats(month); ok {
			history[month] = monthly
		}
	}
	return history
}
