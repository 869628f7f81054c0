// Package api содержит OpenAPI-описание сервиса, отдаваемое по /swagger/openapi.json.
package api

import _ "embed"

//go:embed openapi.json
var OpenAPISpec []byte
