// Package api holds the gin handlers of the REST gateway. Handlers report
// failures with c.Error and leave the response body to errors.ErrorHandler.
package api

import (
	"aura/backend/pkg/errors"
	"aura/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// bindJSON decodes the body into dst, recording a validation error on failure
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.Error(errors.NewValidationError("Invalid request format").WithDetails(err.Error()))
		return false
	}
	return true
}

// userID returns the authenticated caller or records an unauthorized error
func userID(c *gin.Context) (string, bool) {
	id := middleware.CurrentUserID(c)
	if id == "" {
		c.Error(errors.NewUnauthorizedError("Authentication required"))
		return "", false
	}
	return id, true
}
