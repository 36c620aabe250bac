package router

import (
	"os"

	"aura/backend/internal/api"

	"github.com/gin-gonic/gin"
)

// setupHealthRoutes registers health check endpoints and the metrics scrape
func (r *Router) setupHealthRoutes(limit gin.HandlerFunc) {
	version := os.Getenv("APP_VERSION")
	if version == "" {
		version = "dev"
	}
	healthHandler := api.NewHealthHandler(r.Container.Health, version)

	// Register both health endpoint paths for compatibility
	r.Engine.GET("/health", limit, healthHandler.Health)
	r.Engine.GET("/api/health", limit, healthHandler.Health)

	if r.Container.Telemetry != nil {
		r.Engine.GET("/metrics", gin.WrapH(r.Container.Telemetry.Handler))
	}
}
