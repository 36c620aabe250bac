package router

import (
	"net/http"
	"strings"

	"aura/backend/internal/api"
	"aura/backend/internal/ws"
	"aura/backend/pkg/di"
	"aura/backend/pkg/errors"
	"aura/backend/pkg/logger"
	"aura/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)

	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(corsMiddleware(container.Config.Security.AllowedOrigins))
	engine.Use(bodyLimit(container.Config.Security.MaxBodySize))

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	c := r.Container

	r.AddOpenAPIValidation(c.Config.Observability.OpenAPISchemaPath)
	// limit keys on the user after jwtAuth and on the client IP before it
	limit := c.RateLimiter.Middleware()
	r.setupHealthRoutes(limit)

	jwtAuth := middleware.JWTAuthMiddleware(c.JWTService, false)

	authHandler := api.NewAuthHandler(c.UserService)
	threatHandler := api.NewThreatHandler(c.ThreatService)
	companionHandler := api.NewCompanionHandler(c.CompanionDialogue)
	evidenceHandler := api.NewEvidenceHandler(c.EvidenceService)
	emergencyHandler := api.NewEmergencyHandler(c.EmergencyService)
	communityHandler := api.NewCommunityHandler(c.CommunityService)
	learningHandler := api.NewLearningHandler(c.LearningService)
	insightsHandler := api.NewInsightsHandler(c.InsightsService)

	apiGroup := r.Engine.Group("/api")

	// Public routes (no auth required)
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", limit, authHandler.Register)
		authRoutes.POST("/login", limit, authHandler.Login)
		authRoutes.GET("/user", jwtAuth, limit, authHandler.Me)
	}

	// Protected routes (require authentication)
	protected := apiGroup.Group("")
	protected.Use(jwtAuth, limit)
	{
		protected.POST("/threats/analyze", threatHandler.Analyze)
		protected.GET("/threats", threatHandler.List)
		protected.PATCH("/threats/:id", threatHandler.Update)

		protected.GET("/companion/chat", companionHandler.History)
		protected.POST("/companion/chat", companionHandler.Chat)

		protected.GET("/evidence", evidenceHandler.List)
		protected.POST("/evidence", evidenceHandler.Create)
		protected.GET("/evidence/:id", evidenceHandler.Get)
		protected.DELETE("/evidence/:id", evidenceHandler.Delete)

		protected.GET("/emergency-contacts", emergencyHandler.ListContacts)
		protected.POST("/emergency-contacts", emergencyHandler.CreateContact)
		protected.PATCH("/emergency-contacts/:id", emergencyHandler.UpdateContact)
		protected.DELETE("/emergency-contacts/:id", emergencyHandler.DeleteContact)
		protected.POST("/emergency/alert", emergencyHandler.Alert)

		protected.GET("/community/reports", communityHandler.List)
		protected.POST("/community/reports", communityHandler.Create)

		protected.GET("/learning/modules", learningHandler.Modules)
		protected.GET("/learning/progress", learningHandler.Progress)
		protected.POST("/learning/complete", learningHandler.Complete)

		protected.GET("/insights", insightsHandler.Get)
	}

	// Browsers cannot set headers on a websocket upgrade, so the token may
	// ride in the query string here only.
	wsHandler := ws.NewHandler(c.Hub, c.CompanionDialogue, c.Config.Security.AllowedOrigins)
	r.Engine.GET("/ws/companion", middleware.JWTAuthMiddleware(c.JWTService, true), limit, wsHandler.Serve)
}

func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := len(allowed) == 0
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		set[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			if _, ok := set[origin]; ok || allowAll {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				c.Writer.Header().Set("Vary", "Origin")
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, Authorization, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func bodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
