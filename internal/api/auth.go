package api

import (
	"net/http"

	"aura/backend/internal/models"
	"aura/backend/internal/service"
	"aura/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	service *service.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *service.UserService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	logger.FromGin(c).Info("User registered", "userID", resp.User.ID)
	c.JSON(http.StatusCreated, resp)
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	logger.FromGin(c).Info("User logged in successfully",
		"userID", resp.User.ID,
		"role", resp.User.Role,
	)
	c.JSON(http.StatusOK, resp)
}

// Me returns the current authenticated user
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}
