package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the API description as YAML and JSON
type OpenAPIHandler struct {
	yamlDoc []byte
	jsonDoc []byte
}

// NewOpenAPIHandler parses the YAML document once so both formats are served from memory
func NewOpenAPIHandler(doc []byte) (*OpenAPIHandler, error) {
	var parsed map[string]any
	if err := yaml.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("openapi document is empty")
	}

	jsonDoc, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("encode openapi document: %w", err)
	}

	return &OpenAPIHandler{yamlDoc: doc, jsonDoc: jsonDoc}, nil
}

// ServeYAML serves the OpenAPI document as YAML
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	_, _ = w.Write(h.yamlDoc)
}

// ServeJSON serves the OpenAPI document as JSON
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(h.jsonDoc)
}
