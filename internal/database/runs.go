package database

import (
	"database/sql"
	"fmt"
	"time"

	"photocrawl/internal/model"
)

// Run tracking

func (c *SQLiteCatalog) CreateRun(operation, parameters string) (*model.Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	started := time.Now().UTC()
	res, err := c.db.Exec(
		"INSERT INTO runs (operation, parameters, started_at, status) VALUES (?, ?, ?, 'running')",
		operation, parameters, started,
	)
	if err != nil {
		return nil, storageError("creating run", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storageError("creating run", err)
	}
	return &model.Run{
		ID:         id,
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  started,
		Status:     "running",
	}, nil
}

// FinishRun stamps the run with its final status and outcome counts.
func (c *SQLiteCatalog) FinishRun(run *model.Run) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	finished := time.Now().UTC()
	_, err := c.db.Exec(`UPDATE runs SET finished_at = ?, status = ?,
		copied = ?, replaced = ?, skipped_duplicate = ?, skipped_inferior = ?, skipped_derived = ?, failed = ?
		WHERE id = ?`,
		finished, run.Status,
		run.Copied, run.Replaced, run.SkippedDuplicate, run.SkippedInferior, run.SkippedDerived, run.Failed,
		run.ID,
	)
	if err != nil {
		return storageError("finishing run", err)
	}
	run.FinishedAt = &finished
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (c *SQLiteCatalog) ListRuns(limit int) ([]*model.Run, error) {
	rows, err := c.db.Query(`SELECT id, operation, parameters, started_at, finished_at, status,
		copied, replaced, skipped_duplicate, skipped_inferior, skipped_derived, failed
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, storageError("listing runs", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		var r model.Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Operation, &r.Parameters, &r.StartedAt, &finished, &r.Status,
			&r.Copied, &r.Replaced, &r.SkippedDuplicate, &r.SkippedInferior, &r.SkippedDerived, &r.Failed); err != nil {
			return nil, storageError("scanning run", err)
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// MaxRunID returns the highest run id, or 0. Used as the snapshot version.
func (c *SQLiteCatalog) MaxRunID() (int64, error) {
	var id int64
	if err := c.db.QueryRow("SELECT COALESCE(MAX(id), 0) FROM runs").Scan(&id); err != nil {
		return 0, storageError("getting max run id", err)
	}
	return id, nil
}
