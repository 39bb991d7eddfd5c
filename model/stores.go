// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import (
	"context"
	"time"
)

// Store is the persistence surface used by the pipeline.
type Store interface {
	// batches and documents

	InsertBatch(ctx context.Context, batch *Batch) (int64, error)
	GetBatch(ctx context.Context, id int64) (*Batch, error)
	InsertDocumentFile(ctx context.Context, df *DocumentFile) (int64, error)
	InsertDocumentWithWork(ctx context.Context, df *DocumentFile, work *Work) (int64, int64, error)
	GetDocumentFileByID(ctx context.Context, id int64) (*DocumentFile, error)
	GetDocumentFileBySHA256(ctx context.Context, sha256 string) (*DocumentFile, error)
	ListDocumentFiles(ctx context.Context) ([]DocumentFile, error)

	// stages

	InsertWork(ctx context.Context, work *Work) (int64, error)
	ClaimWork(ctx context.Context, stage, workerID string) (*Work, error)
	FinishWork(ctx context.Context, id int64, status, errorCode, errorMsg string) error
	RetryWork(ctx context.Context, id int64, availableAt time.Time, errorCode, errorMsg string) error
	ResetFailedWork(ctx context.Context, stage string) (int, error)
	RequeueStaleWork(ctx context.Context, stage string, lockedBefore time.Time) (int, error)
	GetFailedWork(ctx context.Context, stage string) ([]Work, error)
	GetWorkSummaryByBatch(ctx context.Context, batchID int64) (map[string]map[string]int, error)

	// renderings

	InsertRendering(ctx context.Context, r *Rendering) (int64, error)
	GetLatestRendering(ctx context.Context, documentFileID int64) (*Rendering, error)
}

// Stats holds store statistics.
type Stats struct {
	Documents  int
	Renderings int
	Queued     int
	Failed     int
}
