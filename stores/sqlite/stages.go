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

const workColumns = `id, document_file_id, stage, status, attempt, available_at,
	locked_by, locked_at, started_at, finished_at, error_code, error_message`

// InsertWork queues a job and returns its assigned ID.
func (s *SQLiteStore) InsertWork(ctx context.Context, work *model.Work) (int64, error) {
	return insertWork(ctx, s.db, work)
}

func insertWork(ctx context.Context, db execer, work *model.Work) (int64, error) {
	const query = `
		INSERT INTO work (document_file_id, stage, status, attempt, available_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := db.ExecContext(ctx, query,
		work.DocumentFileID,
		work.Stage,
		work.Status,
		work.Attempt,
		work.AvailableAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert work: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get work id: %w", err)
	}
	work.ID = id
	return id, nil
}

// ClaimWork atomically claims a queued job for a stage, returning nil if none available.
// The claim and the attempt increment happen in one statement, so two workers never hold the same job.
func (s *SQLiteStore) ClaimWork(ctx context.Context, stage, workerID string) (*model.Work, error) {
	now := time.Now().UTC()
	nowStr := now.Format(time.RFC3339)

	const query = `
		UPDATE work
		SET status = 'running',
		    locked_by = ?,
		    locked_at = ?,
		    started_at = COALESCE(started_at, ?),
		    attempt = attempt + 1
		WHERE id = (
			SELECT id FROM work
			WHERE stage = ?
			  AND status = 'queued'
			  AND available_at <= ?
			ORDER BY available_at, id
			LIMIT 1
		)
		RETURNING ` + workColumns

	row := s.db.QueryRowContext(ctx, query, workerID, nowStr, nowStr, stage, nowStr)
	work, err := scanWork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim work: %w", err)
	}
	return work, nil
}

// FinishWork updates a job's status to ok or failed with optional error info.
func (s *SQLiteStore) FinishWork(ctx context.Context, id int64, status, errorCode, errorMsg string) error {
	const query = `
		UPDATE work
		SET status = ?,
		    finished_at = ?,
		    error_code = ?,
		    error_message = ?,
		    locked_by = NULL,
		    locked_at = NULL
		WHERE id = ?
	`
	_, err := s.db.ExecContext(ctx, query,
		status,
		time.Now().UTC().Format(time.RFC3339),
		nullString(errorCode),
		nullString(errorMsg),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish work: %w", err)
	}
	return nil
}

// RetryWork puts a running job back on the queue, not to be claimed before
// availableAt. The error from the failed attempt stays on the row until the
// job finishes; the attempt counter is kept so the caller can cap retries.
func (s *SQLiteStore) RetryWork(ctx context.Context, id int64, availableAt time.Time, errorCode, errorMsg string) error {
	const query = `
		UPDATE work
		SET status = 'queued',
		    available_at = ?,
		    error_code = ?,
		    error_message = ?,
		    locked_by = NULL,
		    locked_at = NULL
		WHERE id = ?
		  AND status = 'running'
	`
	result, err := s.db.ExecContext(ctx, query,
		availableAt.UTC().Format(time.RFC3339),
		nullString(errorCode),
		nullString(errorMsg),
		id,
	)
	if err != nil {
		return fmt.Errorf("retry work: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("retry work %d: not running", id)
	}
	return nil
}

// ResetFailedWork puts failed jobs for a stage back on the queue with a fresh
// attempt budget, returning the number reset.
func (s *SQLiteStore) ResetFailedWork(ctx context.Context, stage string) (int, error) {
	const query = `
		UPDATE work
		SET status = 'queued',
		    attempt = 0,
		    available_at = ?,
		    locked_by = NULL,
		    locked_at = NULL,
		    finished_at = NULL,
		    error_code = NULL,
		    error_message = NULL
		WHERE stage = ?
		  AND status = 'failed'
	`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), stage)
	if err != nil {
		return 0, fmt.Errorf("reset failed work: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// RequeueStaleWork puts running jobs locked before lockedBefore back on the queue.
// It releases claims left behind by workers that died mid-job.
func (s *SQLiteStore) RequeueStaleWork(ctx context.Context, stage string, lockedBefore time.Time) (int, error) {
	const query = `
		UPDATE work
		SET status = 'queued',
		    available_at = ?,
		    locked_by = NULL,
		    locked_at = NULL
		WHERE stage = ?
		  AND status = 'running'
		  AND locked_at < ?
	`
	result, err := s.db.ExecContext(ctx, query,
		time.Now().UTC().Format(time.RFC3339),
		stage,
		lockedBefore.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("requeue stale work: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// GetFailedWork returns all failed jobs for a stage.
func (s *SQLiteStore) GetFailedWork(ctx context.Context, stage string) ([]model.Work, error) {
	const query = `
		SELECT ` + workColumns + `
		FROM work
		WHERE stage = ?
		  AND status = 'failed'
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, stage)
	if err != nil {
		return nil, fmt.Errorf("get failed work: %w", err)
	}
	defer rows.Close()

	var works []model.Work
	for rows.Next() {
		work, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		works = append(works, *work)
	}
	return works, rows.Err()
}

// GetWorkSummaryByBatch returns work counts grouped by stage and status for a batch.
// Returns map[stage]map[status]count.
func (s *SQLiteStore) GetWorkSummaryByBatch(ctx context.Context, batchID int64) (map[string]map[string]int, error) {
	const query = `
		SELECT w.stage, w.status, COUNT(*) as cnt
		FROM work w
		JOIN document_files df ON w.document_file_id = df.id
		WHERE df.batch_id = ?
		GROUP BY w.stage, w.status
	`
	rows, err := s.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("get work summary: %w", err)
	}
	defer rows.Close()

	result := make(map[string]map[string]int)
	for rows.Next() {
		var stage, status string
		var cnt int
		if err := rows.Scan(&stage, &status, &cnt); err != nil {
			return nil, fmt.Errorf("scan work summary: %w", err)
		}
		if result[stage] == nil {
			result[stage] = make(map[string]int)
		}
		result[stage][status] = cnt
	}
	return result, rows.Err()
}

// scanWork scans a Work from a sql.Row or sql.Rows.
func scanWork(row scanner) (*model.Work, error) {
	var w model.Work
	var availableAt, lockedBy, lockedAt, startedAt, finishedAt, errorCode, errorMessage sql.NullString
	if err := row.Scan(
		&w.ID, &w.DocumentFileID, &w.Stage, &w.Status, &w.Attempt, &availableAt,
		&lockedBy, &lockedAt, &startedAt, &finishedAt, &errorCode, &errorMessage,
	); err != nil {
		return nil, err
	}
	w.AvailableAt = parseTime(availableAt.String)
	w.LockedBy = nullStringPtr(lockedBy)
	w.LockedAt = parseTimePtr(lockedAt)
	w.StartedAt = parseTimePtr(startedAt)
	w.FinishedAt = parseTimePtr(finishedAt)
	w.ErrorCode = nullStringPtr(errorCode)
	w.ErrorMessage = nullStringPtr(errorMessage)
	return &w, nil
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func parseTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, ns.String); err == nil {
		return &t
	}
	return nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
