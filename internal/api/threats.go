package api

import (
	"net/http"

	"aura/backend/internal/models"
	"aura/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ThreatHandler serves message analysis and the threat log
type ThreatHandler struct {
	service *service.ThreatService
}

func NewThreatHandler(service *service.ThreatService) *ThreatHandler {
	return &ThreatHandler{service: service}
}

// Analyze classifies one message and returns the verdict plus the stored threat, if any
func (h *ThreatHandler) Analyze(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req models.AnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Analyze(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ThreatHandler) List(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	threats, err := h.service.List(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, threats)
}

func (h *ThreatHandler) Update(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var patch models.ThreatPatch
	if !bindJSON(c, &patch) {
		return
	}

	threat, err := h.service.Update(c.Request.Context(), id, c.Param("id"), patch)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, threat)
}
