// Package web provides the chat web interface for the trainer.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var staticFiles embed.FS

// Handler returns an http.Handler that serves the chat UI.
func Handler() http.Handler {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}

	fileServer := http.FileServer(http.FS(subFS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" || r.URL.Path == "" {
			r.URL.Path = "/index.html"
		}
		fileServer.ServeHTTP(w, r)
	})
}

// RegisterRoutes adds the chat UI routes to a mux. The UI is served at
// the site root; API routes take precedence via their method patterns.
func RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /{$}", Handler())
	mux.Handle("GET /static/", http.StripPrefix("/static", Handler()))
}
