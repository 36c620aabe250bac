package api

import (
	"net/http"

	"aura/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// InsightsHandler serves the safety dashboard summary
type InsightsHandler struct {
	service *service.InsightsService
}

func NewInsightsHandler(service *service.InsightsService) *InsightsHandler {
	return &InsightsHandler{service: service}
}

func (h *InsightsHandler) Get(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	insights, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, insights)
}
