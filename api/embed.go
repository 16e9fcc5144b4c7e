// Package api holds the HTTP contract of the itinerary service.
package api

import _ "embed"

// OpenAPISpec is the OpenAPI 3.1 document for the preview, health and MCP
// endpoints, served verbatim at GET /openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
