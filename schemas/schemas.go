// Package schemas embeds the JSON schemas for climwrangle files.
package schemas

import _ "embed"

// ConfigSchemaJSON is the schema for .climwrangle.yaml.
//
//go:embed config.schema.json
var ConfigSchemaJSON string
