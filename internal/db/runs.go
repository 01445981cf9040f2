package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound marks lookups of rows that do not exist. Callers distinguish
// it from query failures with errors.Is.
var ErrNotFound = errors.New("not found")

// AnalysisRun is one invocation of the analyzer over a dump source. A run
// groups the per-frame results written while it was active.
type AnalysisRun struct {
	RunID       string     `json:"run_id"`
	SourcePath  string     `json:"source_path"`
	ParamsJSON  string     `json:"params_json"`
	Status      string     `json:"status"`
	FrameCount  int        `json:"frame_count"`
	OKCount     int        `json:"ok_count"`
	ErrorCount  int        `json:"error_count"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// CreateAnalysisRun registers a new run in the running state.
func (db *DB) CreateAnalysisRun(runID, sourcePath, paramsJSON string) error {
	_, err := db.Exec(`
		INSERT INTO analysis_runs (run_id, source_path, params_json, status)
		VALUES (?, ?, ?, ?)`,
		runID, sourcePath, paramsJSON, RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to create analysis run: %w", err)
	}
	return nil
}

// CompleteAnalysisRun finalizes a run with its frame tallies and status.
func (db *DB) CompleteAnalysisRun(runID, status string, frameCount, okCount, errorCount int) error {
	res, err := db.Exec(`
		UPDATE analysis_runs
		SET status = ?, frame_count = ?, ok_count = ?, error_count = ?,
		    completed_at = CURRENT_TIMESTAMP
		WHERE run_id = ?`,
		status, frameCount, okCount, errorCount, runID)
	if err != nil {
		return fmt.Errorf("failed to complete analysis run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("analysis run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// GetAnalysisRun loads a single run by ID.
func (db *DB) GetAnalysisRun(runID string) (*AnalysisRun, error) {
	row := db.QueryRow(`
		SELECT run_id, source_path, params_json, status,
		       frame_count, ok_count, error_count, started_at, completed_at
		FROM analysis_runs
		WHERE run_id = ?`, runID)

	run, err := scanAnalysisRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis run: %w", err)
	}
	return run, nil
}

// ListAnalysisRuns returns the most recent runs, newest first.
func (db *DB) ListAnalysisRuns(limit int) ([]*AnalysisRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT run_id, source_path, params_json, status,
		       frame_count, ok_count, error_count, started_at, completed_at
		FROM analysis_runs
		ORDER BY started_at DESC, run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []*AnalysisRun
	for rows.Next() {
		run, err := scanAnalysisRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analysis runs: %w", err)
	}
	return runs, nil
}

// DeleteAnalysisRun removes a run and, via the foreign key cascade, all of
// its frame results.
func (db *DB) DeleteAnalysisRun(runID string) error {
	res, err := db.Exec(`DELETE FROM analysis_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete analysis run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("analysis run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysisRun(s scanner) (*AnalysisRun, error) {
	var run AnalysisRun
	var completed sql.NullTime
	err := s.Scan(&run.RunID, &run.SourcePath, &run.ParamsJSON, &run.Status,
		&run.FrameCount, &run.OKCount, &run.ErrorCount, &run.StartedAt, &completed)
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	return &run, nil
}
