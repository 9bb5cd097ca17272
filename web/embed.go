// Package web holds the single-page chat UI served at "/".
package web

import "embed"

//go:embed index.html
var Assets embed.FS
