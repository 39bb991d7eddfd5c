// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package handlers serves a read-only preview of ingested documents.
package handlers

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/a-h/templ"
	"github.com/mdhender/richtext"
	"github.com/mdhender/richtext/model"
	"github.com/mdhender/richtext/renderer"
	"github.com/spf13/afero"
)

// Store is the subset of the pipeline store the handlers read from.
type Store interface {
	ListDocumentFiles(ctx context.Context) ([]model.DocumentFile, error)
	GetDocumentFileByID(ctx context.Context, id int64) (*model.DocumentFile, error)
	GetLatestRendering(ctx context.Context, documentFileID int64) (*model.Rendering, error)
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	store    Store
	dataDir  string
	fs       afero.Fs
	renderer *renderer.Renderer
}

// New creates a new Handlers that renders documents with r.
func New(s Store, dataDir string, r *renderer.Renderer) *Handlers {
	return &Handlers{
		store:    s,
		dataDir:  dataDir,
		fs:       afero.NewOsFs(),
		renderer: r,
	}
}

// SetFS sets the filesystem for testing.
func (h *Handlers) SetFS(fs afero.Fs) {
	h.fs = fs
}

// Routes returns a mux with every handler registered.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /documents/{id}", h.Document)
	mux.HandleFunc("GET /documents/{id}/outline", h.Outline)
	mux.HandleFunc("GET /documents/{id}/rendering", h.Rendering)
	mux.HandleFunc("GET /documents/{id}/source", h.Source)
	return mux
}

// loadDocumentFile resolves the {id} path value.
// On failure it writes the response and returns nil.
func (h *Handlers) loadDocumentFile(w http.ResponseWriter, r *http.Request) *model.DocumentFile {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		http.Error(w, "Invalid document id", http.StatusBadRequest)
		return nil
	}
	df, err := h.store.GetDocumentFileByID(r.Context(), id)
	if err != nil {
		log.Printf("handlers: document %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil
	} else if df == nil {
		http.NotFound(w, r)
		return nil
	}
	return df
}

// readSource returns the stored JSON for a document file.
func (h *Handlers) readSource(df *model.DocumentFile) ([]byte, error) {
	return afero.ReadFile(h.fs, filepath.Join(h.dataDir, df.FsPath))
}

// loadDocument reads and decodes a document file.
// On failure it writes the response and returns nil.
func (h *Handlers) loadDocument(w http.ResponseWriter, df *model.DocumentFile) *richtext.Document {
	data, err := h.readSource(df)
	if err != nil {
		log.Printf("handlers: document %d: %v", df.ID, err)
		http.Error(w, "Document source is missing", http.StatusNotFound)
		return nil
	}
	doc, err := richtext.DecodeDocument(bytes.NewReader(data))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return nil
	}
	return doc
}

// writeComponent renders c fully before writing so that render errors
// become a 500 instead of a truncated page.
func writeComponent(w http.ResponseWriter, r *http.Request, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		log.Printf("handlers: %s: %v", r.URL.Path, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
