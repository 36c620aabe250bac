package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// GinKey is the gin context key holding the request-scoped logger
	GinKey = "logger"
	// RequestIDHeader carries the request id in and out
	RequestIDHeader = "X-Request-ID"
)

// Middleware returns a Gin middleware function that logs requests
func Middleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set("requestId", requestID)

		reqLogger := logger.WithRequestID(requestID)
		c.Set(GinKey, reqLogger)
		c.Request = c.Request.WithContext(IntoContext(c.Request.Context(), reqLogger))

		start := time.Now()

		c.Next()

		// auth runs after this middleware, so the user id is only known now
		if userID := c.GetString("userId"); userID != "" {
			reqLogger = reqLogger.WithUserID(userID)
		}
		reqLogger.LogRequest(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// FromGin returns the request-scoped logger set by Middleware
func FromGin(c *gin.Context) *Logger {
	if l, ok := c.Get(GinKey); ok {
		if log, ok := l.(*Logger); ok {
			return log
		}
	}
	return GetGlobal()
}
