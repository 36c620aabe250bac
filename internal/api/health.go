package api

import (
	"net/http"
	"time"

	"aura/backend/pkg/health"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the component status gathered by a health.Checker
type HealthHandler struct {
	checker *health.Checker
	version string
	started time.Time
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status     string                      `json:"status"`
	Timestamp  time.Time                   `json:"timestamp"`
	Version    string                      `json:"version"`
	Uptime     string                      `json:"uptime"`
	Components map[string]health.Component `json:"components"`
}

func NewHealthHandler(checker *health.Checker, version string) *HealthHandler {
	return &HealthHandler{checker: checker, version: version, started: time.Now()}
}

// Health answers 200 while every critical component is up, 503 otherwise
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:     "ok",
		Timestamp:  time.Now().UTC(),
		Version:    h.version,
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Components: h.checker.GetStatus(),
	}

	code := http.StatusOK
	if !h.checker.IsSystemHealthy() {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}
