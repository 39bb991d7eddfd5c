// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mdhender/richtext/model"
	"github.com/spf13/afero"
)

// IngestService stores rich-text documents and queues them for rendering.
type IngestService struct {
	store   IngestStore
	dataDir string
	fs      afero.Fs
}

// IngestStore defines the store operations needed by IngestService.
type IngestStore interface {
	InsertBatch(ctx context.Context, batch *model.Batch) (int64, error)
	GetDocumentFileBySHA256(ctx context.Context, sha256 string) (*model.DocumentFile, error)
	// InsertDocumentWithWork commits the document row and its render job
	// together, so a document is never stored without a job.
	InsertDocumentWithWork(ctx context.Context, df *model.DocumentFile, work *model.Work) (int64, int64, error)
}

// NewIngestService creates a new IngestService.
func NewIngestService(store IngestStore, dataDir string) *IngestService {
	return &IngestService{
		store:   store,
		dataDir: dataDir,
		fs:      afero.NewOsFs(),
	}
}

// SetFS sets the filesystem for testing.
func (s *IngestService) SetFS(fs afero.Fs) {
	s.fs = fs
}

// IngestRequest contains the parameters for ingesting a file.
type IngestRequest struct {
	Filename string // original filename
	Data     []byte // document JSON
}

// IngestResult contains the result of an ingest operation.
type IngestResult struct {
	DocumentFileID int64
	WorkID         int64
	Duplicate      bool // true if file was already ingested (idempotent no-op)
}

// IngestFile stores a single document and queues a render job for it.
// Returns IngestResult with Duplicate=true if the same bytes were ingested before.
func (s *IngestService) IngestFile(ctx context.Context, batchID int64, req IngestRequest) (*IngestResult, error) {
	hash := sha256.Sum256(req.Data)
	hashStr := hex.EncodeToString(hash[:])

	existing, err := s.store.GetDocumentFileBySHA256(ctx, hashStr)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if existing != nil {
		return &IngestResult{
			DocumentFileID: existing.ID,
			Duplicate:      true,
		}, nil
	}

	stdName := formatStandardFilename(hashStr, req.Filename)
	fsPath := filepath.Join("batches", fmt.Sprintf("%d", batchID), stdName)
	fullPath := filepath.Join(s.dataDir, fsPath)

	if err := s.fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, &ErrWriteFile{Op: "mkdir", Path: filepath.Dir(fullPath), Err: err}
	}
	existed, _ := afero.Exists(s.fs, fullPath)
	if err := afero.WriteFile(s.fs, fullPath, req.Data, 0644); err != nil {
		return nil, &ErrWriteFile{Op: "write", Path: fullPath, Err: err}
	}

	df := &model.DocumentFile{
		Name:      filepath.Base(req.Filename),
		SHA256:    hashStr,
		CreatedAt: time.Now().UTC(),
		FsPath:    fsPath,
		BatchID:   &batchID,
	}
	work := &model.Work{
		Stage:       model.WorkStageRender,
		Status:      model.WorkStatusQueued,
		Attempt:     0,
		AvailableAt: time.Now().UTC(),
	}
	dfID, workID, err := s.store.InsertDocumentWithWork(ctx, df, work)
	if err != nil {
		if !existed {
			_ = s.fs.Remove(fullPath)
		}
		return nil, &ErrDatabase{Op: "insert document", Err: err}
	}

	return &IngestResult{
		DocumentFileID: dfID,
		WorkID:         workID,
	}, nil
}

// IngestBatch creates a batch and ingests multiple files.
// It stops at the first failure and returns the results collected so far.
func (s *IngestService) IngestBatch(ctx context.Context, createdBy string, files []IngestRequest) (int64, []IngestResult, error) {
	batch := &model.Batch{
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	batchID, err := s.store.InsertBatch(ctx, batch)
	if err != nil {
		return 0, nil, &ErrDatabase{Op: "insert batch", Err: err}
	}

	var results []IngestResult
	for _, file := range files {
		result, err := s.IngestFile(ctx, batchID, file)
		if err != nil {
			return batchID, results, err
		}
		results = append(results, *result)
	}

	return batchID, results, nil
}

// formatStandardFilename prefixes the base name with the start of the content hash,
// so files with the same name in one batch don't collide.
// Example: 3f2a9c1d0b7e.welcome.json
func formatStandardFilename(hash, filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		base = "document"
	}
	if strings.ToLower(filepath.Ext(base)) != ".json" {
		base += ".json"
	}
	return fmt.Sprintf("%s.%s", hash[:12], base)
}
