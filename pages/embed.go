// Package pages embeds the portal's HTML templates and static assets so the
// binary serves them without a pages directory on disk.
package pages

import (
	"embed"
	"io/fs"
)

//go:embed *.html partials/*.html static
var files embed.FS

// Templates returns the filesystem holding *.html and partials/*.html.
func Templates() fs.FS {
	return files
}

// Static returns a filesystem rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic("pages: static directory missing from embed: " + err.Error())
	}
	return sub
}
