package middleware

import (
	"strings"

	"aura/backend/pkg/errors"
	"aura/backend/pkg/jwt"
	"aura/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuthMiddleware
const (
	ClaimsKey   = "claims"
	UserIDKey   = "userId"
	UserRoleKey = "userRole"
)

// TokenValidator is the part of jwt.Service the middleware needs
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// JWTAuthMiddleware checks that the request has a valid JWT and adds claims to the context.
// With allowQuery the token may also come from the "token" query parameter,
// which browsers need for websocket upgrades.
func JWTAuthMiddleware(validator TokenValidator, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && allowQuery {
			token = c.Query("token")
		}
		if token == "" {
			c.Error(errors.NewUnauthorizedError("Authorization header is required"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			logger.FromGin(c).Warn("Invalid JWT token", "error", err.Error())
			c.Error(errors.NewUnauthorizedError("Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, claims.UserID)
		c.Set(UserRoleKey, claims.Role)

		log := logger.FromGin(c).WithUserID(claims.UserID)
		c.Set(logger.GinKey, log)
		c.Request = c.Request.WithContext(logger.IntoContext(c.Request.Context(), log))

		c.Next()
	}
}

// RequireRole returns a middleware that requires the user to have a specific role
func RequireRole(role jwt.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.Get(ClaimsKey)
		if !ok {
			c.Error(errors.NewUnauthorizedError("Authentication required"))
			c.Abort()
			return
		}

		jwtClaims, ok := claims.(*jwt.Claims)
		if !ok || !jwtClaims.HasRole(role) {
			c.Error(errors.NewForbiddenError("Your role does not allow this operation"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUserID returns the authenticated caller, or "" outside an authenticated route
func CurrentUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
