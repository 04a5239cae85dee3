package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ai-visibility/backend/logging"
	"github.com/ai-visibility/backend/middleware"
	"github.com/ai-visibility/backend/visibility"
)

type analyzeCompanyRequest struct {
	CompanyName string `json:"company_name"`
	Refresh     bool   `json:"refresh"`
}

func (h *Handler) analyzeCompany(c *gin.Context) {
	var req analyzeCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	middleware.MarkAnalysis(c, logging.KindCompany, req.CompanyName)

	analysis, cached, err := h.companies.Analyze(c.Request.Context(), req.CompanyName, req.Refresh)
	if err != nil {
		h.fail(c, err)
		return
	}

	if cached {
		c.JSON(http.StatusOK, gin.H{"message": "Analysis found in cache", "data": analysis})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Analysis completed successfully", "data": analysis})
}

func (h *Handler) getAnalysis(c *gin.Context) {
	analysis, err := h.store.GetCompanyAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *Handler) getCompanyAnalysis(c *gin.Context) {
	analysis, found, err := h.store.LatestCompanyAnalysis(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !found {
		errorJSON(c, http.StatusNotFound, "No analysis found for this company")
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *Handler) listAnalyses(c *gin.Context) {
	page := queryInt(c, "page", 1)
	perPage := min(queryInt(c, "per_page", defaultPerPage), maxPerPage)

	analyses, total, err := h.store.ListCompanyAnalyses(c.Request.Context(), page, perPage)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analyses":     analyses,
		"total":        total,
		"pages":        pageCount(total, perPage),
		"current_page": page,
	})
}

func (h *Handler) platforms(c *gin.Context) {
	c.JSON(http.StatusOK, visibility.PlatformCatalog())
}

func (h *Handler) methodologies(c *gin.Context) {
	c.JSON(http.StatusOK, visibility.MethodologyCatalog())
}
