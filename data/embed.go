// Package data embeds the default reference tables shipped with the server.
package data

import "embed"

// Tables holds the bundled *.json reference tables at the FS root.
//
//go:embed *.json
var Tables embed.FS
