// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mdhender/richtext/model"
	"github.com/mdhender/richtext/pipelines/stages"
	"github.com/spf13/afero"
)

// mockStore implements stages.IngestStore and stages.WorkerStore for testing.
type mockStore struct {
	sync.Mutex

	batches       map[int64]*model.Batch
	documentFiles map[int64]*model.DocumentFile
	work          map[int64]*model.Work
	renderings    map[int64]*model.Rendering
	sha256Index   map[string]*model.DocumentFile

	nextBatchID     int64
	nextDocumentID  int64
	nextWorkID      int64
	nextRenderingID int64

	insertErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		batches:         make(map[int64]*model.Batch),
		documentFiles:   make(map[int64]*model.DocumentFile),
		work:            make(map[int64]*model.Work),
		renderings:      make(map[int64]*model.Rendering),
		sha256Index:     make(map[string]*model.DocumentFile),
		nextBatchID:     1,
		nextDocumentID:  1,
		nextWorkID:      1,
		nextRenderingID: 1,
	}
}

func (m *mockStore) InsertBatch(_ context.Context, batch *model.Batch) (int64, error) {
	m.Lock()
	defer m.Unlock()
	id := m.nextBatchID
	m.nextBatchID++
	batch.ID = id
	m.batches[id] = batch
	return id, nil
}

func (m *mockStore) GetDocumentFileBySHA256(_ context.Context, sha256 string) (*model.DocumentFile, error) {
	m.Lock()
	defer m.Unlock()
	return m.sha256Index[sha256], nil
}

func (m *mockStore) GetDocumentFileByID(_ context.Context, id int64) (*model.DocumentFile, error) {
	m.Lock()
	defer m.Unlock()
	return m.documentFiles[id], nil
}

func (m *mockStore) InsertDocumentWithWork(_ context.Context, df *model.DocumentFile, work *model.Work) (int64, int64, error) {
	m.Lock()
	defer m.Unlock()
	if m.insertErr != nil {
		return 0, 0, m.insertErr
	}
	dfID := m.nextDocumentID
	m.nextDocumentID++
	df.ID = dfID
	m.documentFiles[dfID] = df
	m.sha256Index[df.SHA256] = df

	work.DocumentFileID = dfID
	return dfID, m.insertWorkLocked(work), nil
}

func (m *mockStore) InsertWork(_ context.Context, work *model.Work) (int64, error) {
	m.Lock()
	defer m.Unlock()
	return m.insertWorkLocked(work), nil
}

func (m *mockStore) insertWorkLocked(work *model.Work) int64 {
	id := m.nextWorkID
	m.nextWorkID++
	work.ID = id
	m.work[id] = work
	return id
}

func (m *mockStore) ClaimWork(_ context.Context, stage, workerID string) (*model.Work, error) {
	m.Lock()
	defer m.Unlock()
	for id := int64(1); id < m.nextWorkID; id++ {
		w := m.work[id]
		now := time.Now().UTC()
		if w == nil || w.Stage != stage || w.Status != model.WorkStatusQueued || w.AvailableAt.After(now) {
			continue
		}
		w.Status = model.WorkStatusRunning
		w.Attempt++
		w.LockedBy = &workerID
		w.LockedAt = &now
		claimed := *w
		return &claimed, nil
	}
	return nil, nil
}

func (m *mockStore) FinishWork(_ context.Context, id int64, status, errorCode, errorMsg string) error {
	m.Lock()
	defer m.Unlock()
	w := m.work[id]
	if w == nil {
		return errors.New("no such work")
	}
	now := time.Now().UTC()
	w.Status = status
	w.FinishedAt = &now
	w.LockedBy, w.LockedAt = nil, nil
	w.ErrorCode, w.ErrorMessage = nil, nil
	if errorCode != "" {
		w.ErrorCode = &errorCode
	}
	if errorMsg != "" {
		w.ErrorMessage = &errorMsg
	}
	return nil
}

func (m *mockStore) RetryWork(_ context.Context, id int64, availableAt time.Time, errorCode, errorMsg string) error {
	m.Lock()
	defer m.Unlock()
	w := m.work[id]
	if w == nil || w.Status != model.WorkStatusRunning {
		return errors.New("no such running work")
	}
	w.Status = model.WorkStatusQueued
	w.AvailableAt = availableAt
	w.LockedBy, w.LockedAt = nil, nil
	w.ErrorCode, w.ErrorMessage = &errorCode, &errorMsg
	return nil
}

func (m *mockStore) InsertRendering(_ context.Context, r *model.Rendering) (int64, error) {
	m.Lock()
	defer m.Unlock()
	id := m.nextRenderingID
	m.nextRenderingID++
	r.ID = id
	m.renderings[id] = r
	return id, nil
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

const paragraphJSON = `{"nodeType":"document","data":{},"content":[{"nodeType":"paragraph","data":{},"content":[{"nodeType":"text","value":"Hello world!","marks":[{"type":"bold"}],"data":{}}]}]}`

func TestIngestService_IngestFile(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	fs := afero.NewMemMapFs()

	svc := stages.NewIngestService(store, "/data")
	svc.SetFS(fs)

	batchID, err := store.InsertBatch(ctx, &model.Batch{CreatedBy: "test", CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("insert batch: %v", err)
	}

	data := []byte(paragraphJSON)
	result, err := svc.IngestFile(ctx, batchID, stages.IngestRequest{Filename: "/tmp/docs/welcome.json", Data: data})
	if err != nil {
		t.Fatalf("ingest file: %v", err)
	}
	if result.Duplicate {
		t.Error("expected not duplicate on first ingest")
	}
	if result.DocumentFileID == 0 {
		t.Error("expected non-zero document file ID")
	}
	if result.WorkID == 0 {
		t.Error("expected non-zero work ID")
	}

	df := store.documentFiles[result.DocumentFileID]
	if df == nil {
		t.Fatal("document file not found in store")
	}
	if df.Name != "welcome.json" {
		t.Errorf("expected name 'welcome.json', got %q", df.Name)
	}
	wantPath := "batches/1/" + hashOf(data)[:12] + ".welcome.json"
	if df.FsPath != wantPath {
		t.Errorf("expected fs_path %q, got %q", wantPath, df.FsPath)
	}
	if df.SHA256 != hashOf(data) {
		t.Errorf("expected sha256 %q, got %q", hashOf(data), df.SHA256)
	}

	work := store.work[result.WorkID]
	if work == nil {
		t.Fatal("work not found in store")
	}
	if work.Stage != model.WorkStageRender {
		t.Errorf("expected stage 'render', got %q", work.Stage)
	}
	if work.Status != model.WorkStatusQueued {
		t.Errorf("expected status 'queued', got %q", work.Status)
	}

	exists, err := afero.Exists(fs, "/data/"+wantPath)
	if err != nil {
		t.Fatalf("check file exists: %v", err)
	}
	if !exists {
		t.Error("expected file to exist on filesystem")
	}
}

func TestIngestService_DuplicateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()

	svc := stages.NewIngestService(store, "/data")
	svc.SetFS(afero.NewMemMapFs())

	batchID, _ := store.InsertBatch(ctx, &model.Batch{CreatedBy: "test", CreatedAt: time.Now().UTC()})
	req := stages.IngestRequest{Filename: "a.json", Data: []byte(paragraphJSON)}

	result1, err := svc.IngestFile(ctx, batchID, req)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	req.Filename = "renamed.json"
	result2, err := svc.IngestFile(ctx, batchID, req)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if !result2.Duplicate {
		t.Error("expected duplicate=true on second ingest")
	}
	if result2.DocumentFileID != result1.DocumentFileID {
		t.Error("expected same document file ID for duplicate")
	}
	if result2.WorkID != 0 {
		t.Error("expected zero work ID for duplicate (no new work created)")
	}
	if len(store.work) != 1 {
		t.Errorf("expected 1 work row, got %d", len(store.work))
	}
}

func TestIngestService_AddsJSONExtension(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()

	svc := stages.NewIngestService(store, "/data")
	svc.SetFS(afero.NewMemMapFs())

	data := []byte(`{"nodeType":"document","data":{},"content":[]}`)
	result, err := svc.IngestFile(ctx, 7, stages.IngestRequest{Filename: "notes", Data: data})
	if err != nil {
		t.Fatalf("ingest file: %v", err)
	}
	want := "batches/7/" + hashOf(data)[:12] + ".notes.json"
	if got := store.documentFiles[result.DocumentFileID].FsPath; got != want {
		t.Errorf("expected fs_path %q, got %q", want, got)
	}
}

func TestIngestService_WriteFailure(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()

	svc := stages.NewIngestService(store, "/data")
	svc.SetFS(afero.NewReadOnlyFs(afero.NewMemMapFs()))

	_, err := svc.IngestFile(ctx, 1, stages.IngestRequest{Filename: "a.json", Data: []byte(paragraphJSON)})
	if err == nil {
		t.Fatal("expected error writing to a read-only filesystem")
	}
	if code := stages.ErrorCode(err); code != stages.ErrCodeWriteFile {
		t.Errorf("expected error code %q, got %q", stages.ErrCodeWriteFile, code)
	}
	if len(store.documentFiles) != 0 {
		t.Error("expected no document file row after a failed write")
	}
}

func TestIngestService_InsertFailure(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.insertErr = errors.New("disk full")
	fs := afero.NewMemMapFs()

	svc := stages.NewIngestService(store, "/data")
	svc.SetFS(fs)

	data := []byte(paragraphJSON)
	_, err := svc.IngestFile(ctx, 1, stages.IngestRequest{Filename: "a.json", Data: data})
	var dbErr *stages.ErrDatabase
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected *ErrDatabase, got %v", err)
	}
	if dbErr.Op != "insert document" {
		t.Errorf("expected op 'insert document', got %q", dbErr.Op)
	}
	if len(store.documentFiles) != 0 {
		t.Errorf("expected no document file rows, got %d", len(store.documentFiles))
	}
	exists, err := afero.Exists(fs, "/data/batches/1/"+hashOf(data)[:12]+".a.json")
	if err != nil {
		t.Fatalf("check file exists: %v", err)
	}
	if exists {
		t.Error("expected the written file to be removed after the insert failed")
	}
}

func TestIngestService_RetryAfterInsertFailure(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.insertErr = errors.New("disk full")

	svc := stages.NewIngestService(store, "/data")
	svc.SetFS(afero.NewMemMapFs())

	req := stages.IngestRequest{Filename: "a.json", Data: []byte(paragraphJSON)}
	if _, err := svc.IngestFile(ctx, 1, req); err == nil {
		t.Fatal("expected the first ingest to fail")
	}

	store.insertErr = nil
	result, err := svc.IngestFile(ctx, 1, req)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if result.Duplicate {
		t.Error("expected the retry to store the document, not report a duplicate")
	}
	work := store.work[result.WorkID]
	if work == nil {
		t.Fatal("expected a render job after the retry")
	}
	if work.Status != model.WorkStatusQueued || work.DocumentFileID != result.DocumentFileID {
		t.Errorf("expected queued job for document %d, got %+v", result.DocumentFileID, work)
	}
}

func TestIngestService_IngestBatch(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()

	svc := stages.NewIngestService(store, "/data")
	svc.SetFS(afero.NewMemMapFs())

	files := []stages.IngestRequest{
		{Filename: "one.json", Data: []byte(`{"nodeType":"document","data":{},"content":[]}`)},
		{Filename: "two.json", Data: []byte(paragraphJSON)},
		{Filename: "again.json", Data: []byte(paragraphJSON)},
	}

	batchID, results, err := svc.IngestBatch(ctx, "test-user", files)
	if err != nil {
		t.Fatalf("ingest batch: %v", err)
	}
	if batchID == 0 {
		t.Error("expected non-zero batch ID")
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[2].Duplicate {
		t.Error("expected third file to be a duplicate of the second")
	}

	batch := store.batches[batchID]
	if batch == nil {
		t.Fatal("batch not found in store")
	}
	if batch.CreatedBy != "test-user" {
		t.Errorf("expected createdBy 'test-user', got %q", batch.CreatedBy)
	}

	renderCount := 0
	for _, w := range store.work {
		if w.Stage == model.WorkStageRender {
			renderCount++
		}
	}
	if renderCount != 2 {
		t.Errorf("expected 2 render jobs, got %d", renderCount)
	}
}
