package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aura/backend/api"
	"aura/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v, err := NewOpenAPIValidatorFromData(api.OpenAPISpec)
	require.NoError(t, err)

	r := gin.New()
	r.Use(errors.ErrorHandler(), v.Middleware())
	r.POST("/api/threats/analyze", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/unknown", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestValidatorRejectsSchemaViolations(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"message":"hello"}`, http.StatusOK},
		{"missing message", `{}`, http.StatusBadRequest},
		{"empty message", `{"message":""}`, http.StatusBadRequest},
		{"wrong type", `{"message":42}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/threats/analyze", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusBadRequest {
				assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
			}
		})
	}
}

func TestValidatorIgnoresUndocumentedRoutes(t *testing.T) {
	r := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
