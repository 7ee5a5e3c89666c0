// Package web embeds the single-page chat client.
package web

import _ "embed"

//go:embed index.html
var IndexHTML []byte
