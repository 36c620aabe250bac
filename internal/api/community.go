package api

import (
	"net/http"

	"aura/backend/internal/models"
	"aura/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// CommunityHandler serves anonymous abuse reports
type CommunityHandler struct {
	service *service.CommunityService
}

func NewCommunityHandler(service *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{service: service}
}

func (h *CommunityHandler) List(c *gin.Context) {
	reports, err := h.service.ListPublic(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *CommunityHandler) Create(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req models.ReportRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.service.Create(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, report)
}
