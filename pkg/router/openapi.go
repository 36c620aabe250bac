package router

import (
	"net/http"
	"os"

	aurapi "aura/backend/api"
	"aura/backend/pkg/validator"

	"github.com/gin-gonic/gin"
)

// AddOpenAPIValidation adds OpenAPI validation middleware to the router.
// An empty schemaPath uses the document bundled into the binary.
func (r *Router) AddOpenAPIValidation(schemaPath string) {
	doc := aurapi.OpenAPISpec
	if schemaPath != "" {
		data, err := os.ReadFile(schemaPath)
		if err != nil {
			r.Logger.Warn("OpenAPI schema file not readable, using bundled schema", "path", schemaPath, "error", err)
		} else {
			doc = data
		}
	}

	v, err := validator.NewOpenAPIValidatorFromData(doc)
	if err != nil {
		r.Logger.Error("Failed to initialize OpenAPI validator", "error", err)
		return
	}

	r.Engine.Use(v.Middleware())
	r.Engine.GET("/api/docs/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", doc)
	})
	r.Logger.Info("OpenAPI validation enabled", "schema_url", "/api/docs/openapi.yaml")
}
