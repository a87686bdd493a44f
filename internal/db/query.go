package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoRuns is returned by LatestRun when nothing has been recorded.
var ErrNoRuns = errors.New("no runs recorded")

type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress
	Filter     string
	Passed     int
	Failed     int
	Skipped    int
}

// Total returns the number of scenarios recorded for the run.
func (r *Run) Total() int { return r.Passed + r.Failed + r.Skipped }

type ScenarioResult struct {
	FeaturePath string
	Name        string
	Line        int
	Status      string
	Message     string
	Error       string
	Duration    time.Duration
}

// LatestRun returns the most recently started run.
func LatestRun(ctx context.Context, db *sql.DB) (*Run, error) {
	runs, err := Runs(ctx, db, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return &runs[0], nil
}

// Runs returns up to limit runs, newest first.
func Runs(ctx context.Context, db *sql.DB, limit int) ([]Run, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, started_at, COALESCE(finished_at, ''), filter, passed, failed, skipped
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		if err := rows.Scan(&run.ID, &started, &finished, &run.Filter, &run.Passed, &run.Failed, &run.Skipped); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parsing run start time: %w", err)
		}
		if finished != "" {
			if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
				return nil, fmt.Errorf("parsing run finish time: %w", err)
			}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunSummary returns the run's scenario results in the order they were
// recorded.
func RunSummary(ctx context.Context, db *sql.DB, runID string) ([]ScenarioResult, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT feature_path, name, line, status, message, error, duration_ms
		 FROM scenario_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying scenario results: %w", err)
	}
	defer rows.Close()

	var out []ScenarioResult
	for rows.Next() {
		var r ScenarioResult
		var ms int64
		if err := rows.Scan(&r.FeaturePath, &r.Name, &r.Line, &r.Status, &r.Message, &r.Error, &ms); err != nil {
			return nil, fmt.Errorf("scanning scenario result: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestStatuses returns the most recently recorded status of every scenario,
// keyed by "feature_path:line".
func LatestStatuses(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT sr.feature_path, sr.line, sr.status
		FROM scenario_results sr
		WHERE sr.id = (
			SELECT MAX(id) FROM scenario_results
			WHERE feature_path = sr.feature_path AND line = sr.line
		)`)
	if err != nil {
		return nil, fmt.Errorf("querying latest statuses: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, status string
		var line int
		if err := rows.Scan(&path, &line, &status); err != nil {
			return nil, fmt.Errorf("scanning status row: %w", err)
		}
		out[fmt.Sprintf("%s:%d", path, line)] = status
	}
	return out, rows.Err()
}
