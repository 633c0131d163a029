// Package web embeds the page template and its static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed index.html static
var files embed.FS

// IndexTemplate is the page template source.
const IndexTemplate = "index.html"

// Files holds index.html and the static directory.
var Files fs.FS = files

// Static is the static directory alone.
var Static = mustSub(files, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
