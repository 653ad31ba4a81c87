// Package web embeds the static assets served by the analyzer page.
//
// Usage in the API server:
//
//	import "github.com/seenimoa/newspulse/web"
//	fs := web.StaticFS()  // returns io/fs.FS rooted at static/
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var assets embed.FS

// StaticFS returns a filesystem rooted at the embedded static/ directory.
// This is ready to use with http.FileServerFS or http.FS.
func StaticFS() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		// static is a literal embed path; Sub cannot fail at runtime
		panic(err)
	}
	return sub
}
