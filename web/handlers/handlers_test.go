// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package handlers_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/mdhender/richtext/model"
	"github.com/mdhender/richtext/pipelines/stages"
	"github.com/mdhender/richtext/renderer"
	store "github.com/mdhender/richtext/stores/sqlite"
	"github.com/mdhender/richtext/web/handlers"
	"github.com/spf13/afero"
)

const listJSON = `{"nodeType":"document","data":{},"content":[
	{"nodeType":"unordered-list","data":{},"content":[
		{"nodeType":"list-item","data":{},"content":[
			{"nodeType":"paragraph","data":{},"content":[{"nodeType":"text","value":"one <two>","marks":[],"data":{}}]}
		]}
	]}
]}`

type fixture struct {
	server  *httptest.Server
	store   *store.SQLiteStore
	fs      afero.Fs
	batchID int64
}

// newFixture ingests the documents and renders all but the last one.
func newFixture(t *testing.T, docs ...string) *fixture {
	t.Helper()
	ctx := context.Background()
	s, err := store.NewSQLiteStore()
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	fs := afero.NewMemMapFs()

	ingest := stages.NewIngestService(s, "/data")
	ingest.SetFS(fs)
	var files []stages.IngestRequest
	for i, doc := range docs {
		files = append(files, stages.IngestRequest{Filename: fmt.Sprintf("doc-%d.json", i+1), Data: []byte(doc)})
	}
	batchID, results, err := ingest.IngestBatch(ctx, "test", files)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	for _, result := range results {
		if result.Duplicate {
			t.Fatalf("document %d: ingested twice", result.DocumentFileID)
		}
	}

	worker, err := stages.NewWorkerService(s, "/data", "test", nil)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	worker.SetFS(fs)
	for range len(docs) - 1 {
		if _, err := worker.ProcessJob(ctx, model.WorkStageRender); err != nil {
			t.Logf("process job: %v", err)
		}
	}

	r, err := renderer.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	h := handlers.New(s, "/data", r)
	h.SetFS(fs)
	server := httptest.NewServer(h.Routes())
	t.Cleanup(server.Close)
	return &fixture{server: server, store: s, fs: fs, batchID: batchID}
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return resp, string(body)
}

func TestIndex(t *testing.T) {
	f := newFixture(t, listJSON, `{"nodeType":"document","data":{},"content":[]}`)

	resp, body := f.get(t, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	dom, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	links := dom.Find("ul#documents > li > a")
	if links.Length() != 2 {
		t.Fatalf("found %d document links, want 2", links.Length())
	}
	if href, _ := links.First().Attr("href"); href != "/documents/1" {
		t.Errorf("first href = %q, want /documents/1", href)
	}
	if got := links.First().Text(); got != "doc-1.json" {
		t.Errorf("first link text = %q, want doc-1.json", got)
	}
	if !strings.HasPrefix(body, "<!DOCTYPE html>") {
		t.Error("page is missing the doctype")
	}
}

func TestFixture_QueuesEveryDocument(t *testing.T) {
	f := newFixture(t, listJSON, `{"nodeType":"document","data":{},"content":[]}`, listJSON+" ")

	docs, err := f.store.ListDocumentFiles(context.Background())
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("found %d documents, want 3", len(docs))
	}
	for _, df := range docs {
		if df.BatchID == nil || *df.BatchID != f.batchID {
			t.Errorf("%s: batch = %v, want %d", df.Name, df.BatchID, f.batchID)
		}
	}
	summary, err := f.store.GetWorkSummaryByBatch(context.Background(), f.batchID)
	if err != nil {
		t.Fatalf("work summary: %v", err)
	}
	if got := summary[model.WorkStageRender][model.WorkStatusOk]; got != 2 {
		t.Errorf("ok jobs = %d, want 2", got)
	}
	if got := summary[model.WorkStageRender][model.WorkStatusQueued]; got != 1 {
		t.Errorf("queued jobs = %d, want 1", got)
	}
}

func TestIndex_Empty(t *testing.T) {
	f := newFixture(t)
	_, body := f.get(t, "/")
	if !strings.Contains(body, "No documents have been ingested.") {
		t.Errorf("body = %q, want empty-state message", body)
	}
}

func TestDocument(t *testing.T) {
	f := newFixture(t, listJSON, listJSON+" ")

	resp, body := f.get(t, "/documents/1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	dom, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p := dom.Find("article#document > ul > li > p")
	if p.Length() != 1 {
		t.Fatalf("found %d list paragraphs, want 1\n%s", p.Length(), body)
	}
	if got := p.Text(); got != "one <two>" {
		t.Errorf("paragraph text = %q, want %q", got, "one <two>")
	}
	if !strings.Contains(body, "one &lt;two&gt;") {
		t.Error("text value was not escaped")
	}
}

func TestOutline(t *testing.T) {
	f := newFixture(t, listJSON, listJSON+" ")

	resp, body := f.get(t, "/documents/1/outline")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	want := "ul\n  li\n    p\n      \"one <two>\"\n"
	if body != want {
		t.Errorf("outline = %q, want %q", body, want)
	}
}

func TestRendering(t *testing.T) {
	f := newFixture(t, listJSON, `{"nodeType":"document","data":{},"content":[]}`)

	resp, body := f.get(t, "/documents/1/rendering")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if want := "<ul><li><p>one &lt;two&gt;</p></li></ul>"; body != want {
		t.Errorf("rendering = %q, want %q", body, want)
	}

	resp, _ = f.get(t, "/documents/2/rendering")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unrendered document status = %d, want 404", resp.StatusCode)
	}
}

func TestSource(t *testing.T) {
	f := newFixture(t, listJSON, listJSON+" ")

	resp, body := f.get(t, "/documents/1/source")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body != listJSON {
		t.Errorf("source = %q, want the ingested bytes", body)
	}
}

func TestErrors(t *testing.T) {
	f := newFixture(t, `{"nodeType":"paragraph","data":{},"content":[]}`, listJSON)

	testCases := []struct {
		path string
		want int
	}{
		{"/documents/abc", http.StatusBadRequest},
		{"/documents/0", http.StatusBadRequest},
		{"/documents/99", http.StatusNotFound},
		{"/documents/1", http.StatusUnprocessableEntity},
		{"/documents/1/outline", http.StatusUnprocessableEntity},
		{"/nowhere", http.StatusNotFound},
	}
	for _, tc := range testCases {
		resp, _ := f.get(t, tc.path)
		if resp.StatusCode != tc.want {
			t.Errorf("GET %s: status = %d, want %d", tc.path, resp.StatusCode, tc.want)
		}
	}

	if err := f.fs.RemoveAll("/data"); err != nil {
		t.Fatalf("remove data: %v", err)
	}
	resp, _ := f.get(t, "/documents/2")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing source: status = %d, want 404", resp.StatusCode)
	}
}
