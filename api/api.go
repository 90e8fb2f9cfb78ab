// Package api holds the OpenAPI contract of the appraisal backend.
package api

import _ "embed"

// Contract is the backend's OpenAPI document. The portal serves it at
// /openapi.yml and validates outgoing requests against it.
//
//go:embed openapi.yml
var Contract []byte
