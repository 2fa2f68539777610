// Package appfs embeds the files the binaries need at runtime.
package appfs

import "embed"

//go:embed migrations/*.sql assets/templates/email/* forms/*.yaml
var FS embed.FS
