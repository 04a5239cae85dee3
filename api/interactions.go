package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ai-visibility/backend/metrics"
	"github.com/ai-visibility/backend/store"
)

type logInteractionRequest struct {
	UserInput  string `json:"user_input" binding:"required"`
	AIResponse string `json:"ai_response" binding:"required"`
	AIModel    string `json:"ai_model"`
	Context    string `json:"context"`
	Rating     *int   `json:"rating"`
}

type rateRequest struct {
	Rating int `json:"rating"`
}

func (h *Handler) logInteraction(c *gin.Context) {
	var req logInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "user_input and ai_response are required")
		return
	}

	in := &store.Interaction{
		UserInput:  req.UserInput,
		AIResponse: req.AIResponse,
		AIModel:    req.AIModel,
		Context:    req.Context,
		Rating:     req.Rating,
	}
	if err := h.store.LogInteraction(c.Request.Context(), in); err != nil {
		h.fail(c, err)
		return
	}
	if in.Rating != nil {
		metrics.InteractionRatings.WithLabelValues(strconv.Itoa(*in.Rating)).Inc()
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":        true,
		"message":        "Interaction logged successfully",
		"interaction_id": in.ID,
	})
}

func (h *Handler) listInteractions(c *gin.Context) {
	page := queryInt(c, "page", 1)

	interactions, total, err := h.store.ListInteractions(c.Request.Context(), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	if interactions == nil {
		interactions = []*store.Interaction{}
	}

	c.JSON(http.StatusOK, gin.H{
		"interactions": interactions,
		"total":        total,
		"pages":        pageCount(total, store.InteractionsPerPage),
		"current_page": page,
	})
}

func (h *Handler) getInteraction(c *gin.Context) {
	in, err := h.store.GetInteraction(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}

func (h *Handler) rateInteraction(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	in, err := h.store.RateInteraction(c.Request.Context(), c.Param("id"), req.Rating)
	if err != nil {
		h.fail(c, err)
		return
	}
	metrics.InteractionRatings.WithLabelValues(strconv.Itoa(req.Rating)).Inc()

	c.JSON(http.StatusOK, gin.H{"message": "Rating saved successfully", "data": in})
}

func (h *Handler) interactionStats(c *gin.Context) {
	stats, err := h.store.InteractionStats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
