// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package handlers

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"github.com/a-h/templ"
	"github.com/mdhender/richtext/outline"
	"github.com/mdhender/richtext/renderer"
	"github.com/spf13/afero"
)

// Index lists every ingested document.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.ListDocumentFiles(r.Context())
	if err != nil {
		log.Printf("handlers: list documents: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	items := make([]templ.Component, 0, len(docs))
	for _, df := range docs {
		items = append(items, renderer.Element("li", nil,
			link(fmt.Sprintf("/documents/%d", df.ID), df.Name),
			renderer.Text(" "),
			renderer.Element("code", nil, renderer.Text(df.SHA256[:min(12, len(df.SHA256))])),
		))
	}
	body := []templ.Component{renderer.Element("h1", nil, renderer.Text("Documents"))}
	if len(items) == 0 {
		body = append(body, renderer.Element("p", nil, renderer.Text("No documents have been ingested.")))
	} else {
		body = append(body, renderer.Element("ul", []renderer.Attr{{Key: "id", Value: "documents"}}, items...))
	}
	writeComponent(w, r, page("Documents", body...))
}

// Document renders a document with the configured renderer.
func (h *Handlers) Document(w http.ResponseWriter, r *http.Request) {
	df := h.loadDocumentFile(w, r)
	if df == nil {
		return
	}
	doc := h.loadDocument(w, df)
	if doc == nil {
		return
	}

	base := fmt.Sprintf("/documents/%d", df.ID)
	writeComponent(w, r, page(df.Name,
		renderer.Element("nav", nil,
			link("/", "Documents"), renderer.Text(" | "),
			link(base+"/outline", "Outline"), renderer.Text(" | "),
			link(base+"/rendering", "Stored rendering"), renderer.Text(" | "),
			link(base+"/source", "Source"),
		),
		renderer.Element("article", []renderer.Attr{{Key: "id", Value: "document"}}, h.renderer.Render(doc)),
	))
}

// Outline writes the element tree of the rendered document as plain text.
func (h *Handlers) Outline(w http.ResponseWriter, r *http.Request) {
	df := h.loadDocumentFile(w, r)
	if df == nil {
		return
	}
	doc := h.loadDocument(w, df)
	if doc == nil {
		return
	}
	text, err := outline.Render(r.Context(), h.renderer.Render(doc))
	if err != nil {
		log.Printf("handlers: outline %d: %v", df.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprint(w, text)
}

// Rendering serves the newest HTML written by the render pipeline.
func (h *Handlers) Rendering(w http.ResponseWriter, r *http.Request) {
	df := h.loadDocumentFile(w, r)
	if df == nil {
		return
	}
	rendering, err := h.store.GetLatestRendering(r.Context(), df.ID)
	if err != nil {
		log.Printf("handlers: rendering %d: %v", df.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	} else if rendering == nil {
		http.Error(w, "Document has not been rendered", http.StatusNotFound)
		return
	}
	data, err := afero.ReadFile(h.fs, filepath.Join(h.dataDir, rendering.FsPath))
	if err != nil {
		log.Printf("handlers: rendering %d: %v", df.ID, err)
		http.Error(w, "Rendering file is missing", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

// Source serves the stored document JSON.
func (h *Handlers) Source(w http.ResponseWriter, r *http.Request) {
	df := h.loadDocumentFile(w, r)
	if df == nil {
		return
	}
	data, err := h.readSource(df)
	if err != nil {
		log.Printf("handlers: source %d: %v", df.ID, err)
		http.Error(w, "Document source is missing", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
