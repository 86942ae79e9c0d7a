package server

import (
	"bytes"
	"embed"
	"fmt"
	"net/http"
	"regexp"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed docs/*.md
var docsFS embed.FS

var docPagePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// renderedDocs caches rendered pages; the source is embedded and never
// changes at runtime.
var renderedDocs sync.Map

// handleDocs renders an embedded markdown page to HTML.
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	if page == "" {
		page = "getting-started"
	}
	if !docPagePattern.MatchString(page) {
		http.NotFound(w, r)
		return
	}

	if html, ok := renderedDocs.Load(page); ok {
		writeDocPage(w, html.([]byte))
		return
	}

	source, err := docsFS.ReadFile("docs/" + page + ".md")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := md.Convert(source, &buf); err != nil {
		s.log.ErrorContext(r.Context(), "failed to render doc page",
			"page", page, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	html := buf.Bytes()
	renderedDocs.Store(page, html)
	writeDocPage(w, html)
}

func writeDocPage(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!doctype html><html><head><title>mandalbook docs</title></head><body>%s</body></html>", body)
}
