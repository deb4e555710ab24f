package response

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Error codes set in ErrorDetail.Extensions["code"] by this module
const (
	CodeParserError  = "PARSER_ERROR"
	CodeNetworkError = "NETWORK_ERROR"
)

// ErrorLocation points at the query text an upstream error refers to
type ErrorLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ErrorDetail is one entry of a GraphQL errors array
type ErrorDetail struct {
	Message    string          `json:"message"`
	Path       []any           `json:"path,omitempty"`
	Extensions map[string]any  `json:"extensions,omitempty"`
	Locations  []ErrorLocation `json:"locations,omitempty"`
}

// Code returns extensions.code, or nil when absent
func (e ErrorDetail) Code() any {
	if e.Extensions == nil {
		return nil
	}
	return e.Extensions["code"]
}

// Raw is an upstream GraphQL response body as received
type Raw struct {
	Data   map[string]any `json:"data"`
	Errors []ErrorDetail  `json:"errors,omitempty"`
}

// Envelope is the normalized result handed to callers
type Envelope struct {
	Data    map[string]any `json:"data"`
	Errors  []ErrorDetail  `json:"errors,omitempty"`
	Success bool           `json:"success"`
}

// Decode parses a response body. Numbers are kept as json.Number. An empty
// or literal null body decodes to a nil Raw.
func Decode(body []byte) (*Raw, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var raw Raw
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	return &raw, nil
}
