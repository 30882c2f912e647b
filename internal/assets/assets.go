// Package assets embeds static files shipped with the binary.
package assets

import _ "embed"

// ConfigExample is the annotated starter configuration printed by the
// config-example subcommand.
//
//go:embed example.yaml
var ConfigExample []byte
