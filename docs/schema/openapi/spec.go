// Package openapi embeds the reefmap API description for runtime
// distribution. The handler serves it verbatim at /openapi.yaml.
package openapi

import _ "embed"

// APISpec contains the reefmap OpenAPI document.
//
//go:embed openapi.yaml
var APISpec []byte

// Spec returns a defensive copy of the embedded OpenAPI YAML.
func Spec() []byte {
	return append([]byte(nil), APISpec...)
}
