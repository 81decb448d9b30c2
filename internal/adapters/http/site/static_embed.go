package site

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html static/*
var siteFS embed.FS

// staticFS exposes the stylesheet and other assets rooted at static/.
var staticFS fs.FS = func() fs.FS {
	sub, err := fs.Sub(siteFS, "static")
	if err != nil {
		return siteFS
	}
	return sub
}()
