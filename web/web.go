// Package web embeds the static assets served under /web/static.
package web

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.943 generate

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFS embed.FS

// Static returns the asset tree rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
