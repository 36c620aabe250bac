// Package api carries the OpenAPI description of the AURA REST surface.
package api

import _ "embed"

// OpenAPISpec is the bundled openapi.yaml used for request validation
//
//go:embed openapi.yaml
var OpenAPISpec []byte
