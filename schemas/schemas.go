// Package schemas embeds the JSON Schemas for persisted documents.
package schemas

import _ "embed"

//go:embed worldstate.schema.json
var WorldState string
