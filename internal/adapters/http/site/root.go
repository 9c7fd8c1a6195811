// Package site serves the embedded landing page with a live leaderboard view.
package site

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// Register attaches the landing page routes to mux.
// Routes:
//
//	GET /          -> index.html
//	GET /assets/*  -> page scripts and styles
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	// The sub tree is fixed at compile time, fs.Sub cannot fail here.
	root, _ := fs.Sub(staticFS, "static")
	files := http.FileServerFS(root)
	mux.Handle("GET /{$}", files)
	mux.Handle("GET /assets/", files)
}
