// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mdhender/richtext/model"
)

// InsertBatch inserts a Batch and returns its assigned ID.
func (s *SQLiteStore) InsertBatch(ctx context.Context, batch *model.Batch) (int64, error) {
	const query = `
		INSERT INTO batches (created_by, created_at)
		VALUES (?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		nullString(batch.CreatedBy),
		batch.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert batch: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get batch id: %w", err)
	}
	batch.ID = id
	return id, nil
}

// GetBatch retrieves a Batch by ID.
func (s *SQLiteStore) GetBatch(ctx context.Context, id int64) (*model.Batch, error) {
	const query = `
		SELECT id, created_by, created_at
		FROM batches
		WHERE id = ?
	`
	var batch model.Batch
	var createdBy sql.NullString
	var createdAt string
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&batch.ID, &createdBy, &createdAt); err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	batch.CreatedBy = createdBy.String
	batch.CreatedAt = parseTime(createdAt)
	return &batch, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertDocumentFile inserts a document_files row and sets the ID on df.
func (s *SQLiteStore) InsertDocumentFile(ctx context.Context, df *model.DocumentFile) (int64, error) {
	return insertDocumentFile(ctx, s.db, df)
}

// InsertDocumentWithWork inserts a document_files row and its first job in
// one transaction. Either both rows are committed or neither is.
// The IDs are set on df and work.
func (s *SQLiteStore) InsertDocumentWithWork(ctx context.Context, df *model.DocumentFile, work *model.Work) (int64, int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	dfID, err := insertDocumentFile(ctx, tx, df)
	if err != nil {
		return 0, 0, err
	}
	work.DocumentFileID = dfID
	workID, err := insertWork(ctx, tx, work)
	if err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit: %w", err)
	}
	return dfID, workID, nil
}

func insertDocumentFile(ctx context.Context, db execer, df *model.DocumentFile) (int64, error) {
	const query = `
		INSERT INTO document_files (name, sha256, created_at, fs_path, batch_id)
		VALUES (?, ?, ?, ?, ?)
	`
	var batchID any
	if df.BatchID != nil {
		batchID = *df.BatchID
	}
	result, err := db.ExecContext(ctx, query,
		df.Name,
		df.SHA256,
		df.CreatedAt.UTC().Format(time.RFC3339),
		nullString(df.FsPath),
		batchID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert document_file: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get document_file id: %w", err)
	}
	df.ID = id
	return id, nil
}

const documentFileColumns = `id, name, sha256, created_at, fs_path, batch_id`

// GetDocumentFileByID returns a document file by ID, or nil if not found.
func (s *SQLiteStore) GetDocumentFileByID(ctx context.Context, id int64) (*model.DocumentFile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentFileColumns+` FROM document_files WHERE id = ?`, id)
	df, err := scanDocumentFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get document_file by id: %w", err)
	}
	return df, nil
}

// GetDocumentFileBySHA256 returns a document file by SHA256 hash, or nil if not found.
func (s *SQLiteStore) GetDocumentFileBySHA256(ctx context.Context, sha256 string) (*model.DocumentFile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentFileColumns+` FROM document_files WHERE sha256 = ? LIMIT 1`, sha256)
	df, err := scanDocumentFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get document_file by sha256: %w", err)
	}
	return df, nil
}

// ListDocumentFiles returns every document file ordered by ID.
func (s *SQLiteStore) ListDocumentFiles(ctx context.Context) ([]model.DocumentFile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentFileColumns+` FROM document_files ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list document_files: %w", err)
	}
	defer rows.Close()

	var dfs []model.DocumentFile
	for rows.Next() {
		df, err := scanDocumentFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document_file: %w", err)
		}
		dfs = append(dfs, *df)
	}
	return dfs, rows.Err()
}

// InsertRendering records the HTML written for a document and sets the ID on r.
func (s *SQLiteStore) InsertRendering(ctx context.Context, r *model.Rendering) (int64, error) {
	const query = `
		INSERT INTO renderings (document_file_id, work_id, fs_path, sha256, bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	var workID any
	if r.WorkID != 0 {
		workID = r.WorkID
	}
	result, err := s.db.ExecContext(ctx, query,
		r.DocumentFileID,
		workID,
		r.FsPath,
		r.SHA256,
		r.Bytes,
		r.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert rendering: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get rendering id: %w", err)
	}
	r.ID = id
	return id, nil
}

// GetLatestRendering returns the newest rendering for a document file, or nil if there is none.
func (s *SQLiteStore) GetLatestRendering(ctx context.Context, documentFileID int64) (*model.Rendering, error) {
	const query = `
		SELECT id, document_file_id, work_id, fs_path, sha256, bytes, created_at
		FROM renderings
		WHERE document_file_id = ?
		ORDER BY id DESC
		LIMIT 1
	`
	var r model.Rendering
	var workID sql.NullInt64
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, documentFileID).Scan(
		&r.ID, &r.DocumentFileID, &workID, &r.FsPath, &r.SHA256, &r.Bytes, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get latest rendering: %w", err)
	}
	r.WorkID = workID.Int64
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocumentFile(row scanner) (*model.DocumentFile, error) {
	var df model.DocumentFile
	var createdAt string
	var fsPath sql.NullString
	var batchID sql.NullInt64
	if err := row.Scan(&df.ID, &df.Name, &df.SHA256, &createdAt, &fsPath, &batchID); err != nil {
		return nil, err
	}
	df.CreatedAt = parseTime(createdAt)
	df.FsPath = fsPath.String
	if batchID.Valid {
		df.BatchID = &batchID.Int64
	}
	return &df, nil
}
