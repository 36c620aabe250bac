package api

import (
	"net/http"

	"aura/backend/internal/models"
	"aura/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// EmergencyHandler serves emergency contacts and the panic button
type EmergencyHandler struct {
	service *service.EmergencyService
}

func NewEmergencyHandler(service *service.EmergencyService) *EmergencyHandler {
	return &EmergencyHandler{service: service}
}

func (h *EmergencyHandler) ListContacts(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	contacts, err := h.service.ListContacts(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *EmergencyHandler) CreateContact(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req models.ContactRequest
	if !bindJSON(c, &req) {
		return
	}

	contact, err := h.service.CreateContact(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (h *EmergencyHandler) UpdateContact(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req models.ContactRequest
	if !bindJSON(c, &req) {
		return
	}

	contact, err := h.service.UpdateContact(c.Request.Context(), id, c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *EmergencyHandler) DeleteContact(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteContact(c.Request.Context(), id, c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Alert records a panic-button press. An empty body is allowed.
func (h *EmergencyHandler) Alert(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req models.AlertRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	alert, err := h.service.TriggerAlert(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, alert)
}
