// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mdhender/richtext"
	"github.com/mdhender/richtext/model"
	"github.com/mdhender/richtext/renderer"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// WorkerService claims and executes pipeline jobs.
type WorkerService struct {
	store    WorkerStore
	dataDir  string
	workerID string
	fs       afero.Fs
	renderer *renderer.Renderer
	retry    RetryPolicy
}

// RetryPolicy controls how a render job that fails with a retryable error is
// put back on the queue. A job is retried until it has been claimed
// MaxAttempts times; each retry waits Backoff times the attempt number.
// MaxAttempts below 2 disables retries.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// WorkerStore defines the store operations needed by WorkerService.
type WorkerStore interface {
	ClaimWork(ctx context.Context, stage, workerID string) (*model.Work, error)
	FinishWork(ctx context.Context, id int64, status, errorCode, errorMsg string) error
	RetryWork(ctx context.Context, id int64, availableAt time.Time, errorCode, errorMsg string) error
	GetDocumentFileByID(ctx context.Context, id int64) (*model.DocumentFile, error)
	InsertRendering(ctx context.Context, r *model.Rendering) (int64, error)
}

// NewWorkerService creates a new WorkerService.
// A nil renderer uses the default renderers.
func NewWorkerService(store WorkerStore, dataDir, workerID string, r *renderer.Renderer) (*WorkerService, error) {
	if workerID == "" {
		hostname, _ := os.Hostname()
		workerID = fmt.Sprintf("%s:%d", hostname, os.Getpid())
	}
	if r == nil {
		var err error
		if r, err = renderer.New(); err != nil {
			return nil, err
		}
	}
	return &WorkerService{
		store:    store,
		dataDir:  dataDir,
		workerID: workerID,
		fs:       afero.NewOsFs(),
		renderer: r,
	}, nil
}

// SetFS sets the filesystem for testing.
func (w *WorkerService) SetFS(fs afero.Fs) {
	w.fs = fs
}

// SetRetryPolicy sets the policy for retryable failures.
func (w *WorkerService) SetRetryPolicy(p RetryPolicy) {
	w.retry = p
}

// WorkerID returns the identifier recorded on claimed jobs.
func (w *WorkerService) WorkerID() string {
	return w.workerID
}

// WorkResult represents the outcome of executing a job.
type WorkResult struct {
	Success      bool
	ErrorCode    string
	ErrorMessage string
}

// ClaimJob atomically claims a queued job for the given stage.
// Returns nil if no work is available.
func (w *WorkerService) ClaimJob(ctx context.Context, stage string) (*model.Work, error) {
	return w.store.ClaimWork(ctx, stage, w.workerID)
}

// ExecuteRender decodes the stored document, renders it to HTML next to the
// source file and records the rendering.
func (w *WorkerService) ExecuteRender(ctx context.Context, job *model.Work, df *model.DocumentFile) (*model.Rendering, error) {
	fullPath := filepath.Join(w.dataDir, df.FsPath)

	data, err := afero.ReadFile(w.fs, fullPath)
	if err != nil {
		return nil, &ErrReadFile{Path: fullPath, Err: err}
	}

	doc, err := richtext.DecodeDocument(bytes.NewReader(data))
	if err != nil {
		return nil, &ErrDecode{Path: df.FsPath, Err: err}
	}

	var buf bytes.Buffer
	if err := w.renderer.RenderHTML(ctx, &buf, doc); err != nil {
		return nil, &ErrRender{Path: df.FsPath, Err: err}
	}

	htmlPath := renderingPath(df.FsPath)
	fullHTMLPath := filepath.Join(w.dataDir, htmlPath)
	if err := afero.WriteFile(w.fs, fullHTMLPath, buf.Bytes(), 0644); err != nil {
		return nil, &ErrWriteFile{Op: "write", Path: fullHTMLPath, Err: err}
	}

	hash := sha256.Sum256(buf.Bytes())
	rendering := &model.Rendering{
		DocumentFileID: df.ID,
		WorkID:         job.ID,
		FsPath:         htmlPath,
		SHA256:         hex.EncodeToString(hash[:]),
		Bytes:          int64(buf.Len()),
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := w.store.InsertRendering(ctx, rendering); err != nil {
		return nil, &ErrDatabase{Op: "insert rendering", Err: err}
	}

	return rendering, nil
}

// FinishJob marks a job as completed (ok or failed) based on the result.
func (w *WorkerService) FinishJob(ctx context.Context, job *model.Work, result WorkResult) error {
	status := model.WorkStatusOk
	errorCode := ""
	errorMsg := ""

	if !result.Success {
		status = model.WorkStatusFailed
		errorCode = result.ErrorCode
		errorMsg = result.ErrorMessage
	}

	return w.store.FinishWork(ctx, job.ID, status, errorCode, errorMsg)
}

// GetDocumentFile retrieves the document file associated with a job.
func (w *WorkerService) GetDocumentFile(ctx context.Context, job *model.Work) (*model.DocumentFile, error) {
	return w.store.GetDocumentFileByID(ctx, job.DocumentFileID)
}

// ProcessJob claims, executes, and finishes a single job for the given stage.
// Returns (jobProcessed, error). jobProcessed is true if a job was claimed.
func (w *WorkerService) ProcessJob(ctx context.Context, stage string) (bool, error) {
	job, err := w.ClaimJob(ctx, stage)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	df, err := w.GetDocumentFile(ctx, job)
	if err != nil {
		_ = w.FinishJob(ctx, job, WorkResult{
			ErrorCode:    ErrCodeDatabase,
			ErrorMessage: fmt.Sprintf("get document file: %v", err),
		})
		return true, fmt.Errorf("get document file: %w", err)
	}
	if df == nil {
		_ = w.FinishJob(ctx, job, WorkResult{
			ErrorCode:    ErrCodeDatabase,
			ErrorMessage: "document file not found",
		})
		return true, fmt.Errorf("document file %d not found", job.DocumentFileID)
	}

	var execErr error
	switch stage {
	case model.WorkStageRender:
		_, execErr = w.ExecuteRender(ctx, job, df)
	default:
		execErr = fmt.Errorf("unknown stage: %s", stage)
	}

	if execErr != nil {
		code := ErrorCode(execErr)
		if Retryable(code) && job.Attempt < w.retry.MaxAttempts {
			next := time.Now().UTC().Add(w.retry.Backoff * time.Duration(job.Attempt))
			if err := w.store.RetryWork(ctx, job.ID, next, code, execErr.Error()); err != nil {
				return true, fmt.Errorf("retry job: %w", err)
			}
			return true, execErr
		}
		_ = w.FinishJob(ctx, job, WorkResult{
			ErrorCode:    code,
			ErrorMessage: execErr.Error(),
		})
		return true, execErr
	}

	if err := w.FinishJob(ctx, job, WorkResult{Success: true}); err != nil {
		return true, fmt.Errorf("finish job: %w", err)
	}

	return true, nil
}

// DrainResult counts the jobs handled by Drain.
type DrainResult struct {
	Processed int
	Failed    int
}

// Drain runs workers goroutines that process jobs for stage until the queue is empty.
// Failed jobs are counted, not returned; only claim errors and context
// cancellation stop the drain.
func (w *WorkerService) Drain(ctx context.Context, stage string, workers int) (DrainResult, error) {
	if workers < 1 {
		workers = 1
	}
	var processed, failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				ok, err := w.ProcessJob(ctx, stage)
				if !ok {
					return err
				}
				processed.Add(1)
				if err != nil {
					failed.Add(1)
				}
			}
		})
	}
	err := g.Wait()

	return DrainResult{Processed: int(processed.Load()), Failed: int(failed.Load())}, err
}

// renderingPath maps batches/1/abc.doc.json to batches/1/abc.doc.html.
func renderingPath(fsPath string) string {
	return strings.TrimSuffix(fsPath, filepath.Ext(fsPath)) + ".html"
}
