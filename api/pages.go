package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ai-visibility/backend/logging"
	"github.com/ai-visibility/backend/middleware"
)

type analyzeURLRequest struct {
	URL      string   `json:"url"`
	Keywords []string `json:"keywords"`
}

func (h *Handler) analyzeURL(c *gin.Context) {
	var req analyzeURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		errorJSON(c, http.StatusBadRequest, "URL is required")
		return
	}
	middleware.MarkAnalysis(c, logging.KindPage, req.URL)

	analysis, err := h.pages.Analyze(c.Request.Context(), req.URL, req.Keywords)
	if err != nil {
		h.fail(c, err)
		return
	}

	// The result is still useful when it cannot be stored.
	if err := h.store.SavePageAnalysis(c.Request.Context(), analysis); err != nil {
		h.logger.Warn("failed to store page analysis", zap.String("url", analysis.URL), zap.Error(err))
		analysis.ID = ""
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *Handler) getURLAnalysis(c *gin.Context) {
	analysis, err := h.store.GetPageAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}
