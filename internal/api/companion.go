package api

import (
	"net/http"

	"aura/backend/internal/models"
	"aura/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// CompanionHandler serves the companion chat over plain HTTP
type CompanionHandler struct {
	dialogue *service.CompanionDialogue
}

func NewCompanionHandler(dialogue *service.CompanionDialogue) *CompanionHandler {
	return &CompanionHandler{dialogue: dialogue}
}

// History returns {messages}, empty when the user never chatted
func (h *CompanionHandler) History(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	turns, err := h.dialogue.History(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": turns})
}

// Chat appends a user turn and returns the reply with the full transcript
func (h *CompanionHandler) Chat(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req models.ChatRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.dialogue.Converse(c.Request.Context(), id, req.Message)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
