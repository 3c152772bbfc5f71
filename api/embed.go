// Package api holds the published OpenAPI description of the HTTP API.
package api

import _ "embed"

// OpenAPI is the YAML OpenAPI document
//
//go:embed openapi.yaml
var OpenAPI []byte
