package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aura/backend/pkg/errors"
	"aura/backend/pkg/jwt"
	"aura/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(t *testing.T, svc *jwt.Service, allowQuery bool) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.Use(errors.ErrorHandler())
	r.GET("/me", JWTAuthMiddleware(svc, allowQuery), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUserID(c))
	})
	r.GET("/admin", JWTAuthMiddleware(svc, false), RequireRole(jwt.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc, err := jwt.NewService("secret", time.Hour)
	require.NoError(t, err)
	token, err := svc.GenerateToken("user-42", "u@example.com", jwt.RoleUser)
	require.NoError(t, err)

	r := newAuthRouter(t, svc, true)

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	})

	t.Run("bearer token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-42", w.Body.String())
	})

	t.Run("query token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("role check", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(logger.NewNop(), RateLimiterOptions{
		Limit:          1,
		Burst:          2,
		ExpiryDuration: time.Minute,
	})

	r := gin.New()
	r.Use(errors.ErrorHandler(), limiter.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	limiter.evict(time.Now().Add(2 * time.Minute))
	assert.Empty(t, limiter.clients)
}

func TestRateLimiterKeysOnUserAfterAuth(t *testing.T) {
	svc, err := jwt.NewService("secret", time.Hour)
	require.NoError(t, err)
	alice, err := svc.GenerateToken("alice", "alice@example.com", jwt.RoleUser)
	require.NoError(t, err)
	bob, err := svc.GenerateToken("bob", "bob@example.com", jwt.RoleUser)
	require.NoError(t, err)

	limiter := NewRateLimiter(logger.NewNop(), RateLimiterOptions{
		Limit:          0.001,
		Burst:          1,
		ExpiryDuration: time.Minute,
	})

	r := gin.New()
	r.Use(errors.ErrorHandler())
	r.GET("/me", JWTAuthMiddleware(svc, false), limiter.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUserID(c))
	})

	call := func(token string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		return w.Code
	}

	// both requests share the recorder's client IP
	assert.Equal(t, http.StatusOK, call(alice))
	assert.Equal(t, http.StatusTooManyRequests, call(alice))
	assert.Equal(t, http.StatusOK, call(bob))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Contains(t, limiter.clients, "user:alice")
	assert.Contains(t, limiter.clients, "user:bob")
	assert.NotContains(t, limiter.clients, "ip:192.0.2.1")
}
