// Package migrations embeds the goose SQL files applied at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
