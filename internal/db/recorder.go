package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chriserin/stepwise/pkg/engine"
)

// Fixed width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Recorder writes one suite run. It implements engine.Recorder and is safe
// for concurrent use.
type Recorder struct {
	db    *sql.DB
	runID string
	now   func() time.Time
}

// NewRecorder returns a recorder writing to db.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db, now: time.Now}
}

// RunID returns the id of the run started by Start.
func (r *Recorder) RunID() string { return r.runID }

// Start inserts a new run and returns its id.
func (r *Recorder) Start(ctx context.Context, filter string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, filter) VALUES (?, ?, ?)`,
		id, r.now().UTC().Format(timeLayout), filter)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	r.runID = id
	return id, nil
}

// Record stores a scenario result and its steps in one transaction.
func (r *Recorder) Record(ctx context.Context, res engine.Result) error {
	if r.runID == "" {
		return fmt.Errorf("recording result: run not started")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	sc := res.Scenario
	var errText string
	if res.Failure != nil {
		errText = res.Failure.Error()
	}
	out, err := tx.ExecContext(ctx,
		`INSERT INTO scenario_results (run_id, feature_path, feature, name, line, tags, status, message, error, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.runID, sc.FeaturePath, sc.Feature, sc.Name, sc.Line, strings.Join(sc.Tags, " "),
		res.Status.String(), res.Message, errText, res.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("inserting scenario result: %w", err)
	}
	scenarioID, err := out.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading scenario result id: %w", err)
	}

	for i, s := range res.Steps {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO step_results (scenario_result_id, position, keyword, text, line, pattern, status, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			scenarioID, i, s.Keyword, s.Text, s.Line, s.Pattern, s.Status.String(), s.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("inserting step result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing scenario result: %w", err)
	}
	return nil
}

// Finish stamps the run with its end time and outcome counts.
func (r *Recorder) Finish(ctx context.Context, report *engine.Report) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, passed = ?, failed = ?, skipped = ? WHERE id = ?`,
		r.now().UTC().Format(timeLayout),
		report.Count(engine.Passed), report.Count(engine.Failed), report.Count(engine.Skipped),
		r.runID)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}
