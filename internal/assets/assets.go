// Package assets embeds the default form schema, rule table and
// consistency checks so the binary works without external files.
package assets

import _ "embed"

// Names used in error messages for embedded definitions
const (
	SchemaName = "embedded:schema_c0100.yaml"
	RulesName  = "embedded:rules.txt"
	ChecksName = "embedded:checks.yaml"
)

//go:embed schema_c0100.yaml
var Schema []byte

//go:embed rules.txt
var Rules []byte

//go:embed checks.yaml
var Checks []byte
