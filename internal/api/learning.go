package api

import (
	"net/http"

	"aura/backend/internal/models"
	"aura/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// LearningHandler serves the lesson catalog and progress
type LearningHandler struct {
	service *service.LearningService
}

func NewLearningHandler(service *service.LearningService) *LearningHandler {
	return &LearningHandler{service: service}
}

func (h *LearningHandler) Modules(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Modules())
}

func (h *LearningHandler) Progress(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	progress, err := h.service.Progress(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *LearningHandler) Complete(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req models.CompleteLessonRequest
	if !bindJSON(c, &req) {
		return
	}

	progress, err := h.service.Complete(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
