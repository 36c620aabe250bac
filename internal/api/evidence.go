package api

import (
	"net/http"

	"aura/backend/internal/models"
	"aura/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// EvidenceHandler serves the encrypted evidence vault
type EvidenceHandler struct {
	service *service.EvidenceService
}

func NewEvidenceHandler(service *service.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{service: service}
}

func (h *EvidenceHandler) List(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	items, err := h.service.List(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *EvidenceHandler) Create(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req models.EvidenceRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.service.Create(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Get returns one item with its decrypted content
func (h *EvidenceHandler) Get(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	item, err := h.service.Get(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *EvidenceHandler) Delete(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
