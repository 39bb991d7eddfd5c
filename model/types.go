// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import (
	"time"
)

// Batch groups the document files ingested by a single request.
type Batch struct {
	ID        int64     `json:"id"        db:"id"`
	CreatedBy string    `json:"createdBy" db:"created_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// DocumentFile is a rich-text document (JSON) stored under the data directory.
type DocumentFile struct {
	ID        int64     `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"` // original filename
	SHA256    string    `json:"sha256"    db:"sha256"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	FsPath    string    `json:"fsPath"    db:"fs_path"` // relative to the data directory
	BatchID   *int64    `json:"batchId"   db:"batch_id"`
}

// Rendering is the HTML produced for a document file by a render job.
type Rendering struct {
	ID             int64     `json:"id"             db:"id"`
	DocumentFileID int64     `json:"documentFileId" db:"document_file_id"`
	WorkID         int64     `json:"workId"         db:"work_id"`
	FsPath         string    `json:"fsPath"         db:"fs_path"`
	SHA256         string    `json:"sha256"         db:"sha256"`
	Bytes          int64     `json:"bytes"          db:"bytes"`
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
}

// Work is a queued, running or finished pipeline job for one document file.
type Work struct {
	ID             int64      `json:"id"             db:"id"`
	DocumentFileID int64      `json:"documentFileId" db:"document_file_id"`
	Stage          string     `json:"stage"          db:"stage"`
	Status         string     `json:"status"         db:"status"`
	Attempt        int        `json:"attempt"        db:"attempt"`
	AvailableAt    time.Time  `json:"availableAt"    db:"available_at"`
	LockedBy       *string    `json:"lockedBy"       db:"locked_by"`
	LockedAt       *time.Time `json:"lockedAt"       db:"locked_at"`
	StartedAt      *time.Time `json:"startedAt"      db:"started_at"`
	FinishedAt     *time.Time `json:"finishedAt"     db:"finished_at"`
	ErrorCode      *string    `json:"errorCode"      db:"error_code"`
	ErrorMessage   *string    `json:"errorMessage"   db:"error_message"`
}

const (
	WorkStageRender = "render"
)

const (
	WorkStatusQueued  = "queued"
	WorkStatusRunning = "running"
	WorkStatusOk      = "ok"
	WorkStatusFailed  = "failed"
)
