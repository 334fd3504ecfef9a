// Package openapi embeds the HTTP API description.
package openapi

import _ "embed"

// Document is openapi.yaml as served at /api/openapi.yaml.
//
//go:embed openapi.yaml
var Document []byte
