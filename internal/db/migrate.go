package db

import (
	"database/sql"
	"fmt"
)

// All contains the ordered list of migrations to apply.
var All = []string{
	`CREATE TABLE runs (
		id          TEXT PRIMARY KEY,
		started_at  TEXT NOT NULL,
		finished_at TEXT,
		filter      TEXT NOT NULL DEFAULT '',
		passed      INTEGER NOT NULL DEFAULT 0,
		failed      INTEGER NOT NULL DEFAULT 0,
		skipped     INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE scenario_results (
		id           INTEGER PRIMARY KEY,
		run_id       TEXT NOT NULL REFERENCES runs(id),
		feature_path TEXT NOT NULL,
		feature      TEXT NOT NULL,
		name         TEXT NOT NULL,
		line         INTEGER NOT NULL,
		tags         TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL,
		message      TEXT NOT NULL DEFAULT '',
		error        TEXT NOT NULL DEFAULT '',
		duration_ms  INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE step_results (
		id                 INTEGER PRIMARY KEY,
		scenario_result_id INTEGER NOT NULL REFERENCES scenario_results(id),
		position           INTEGER NOT NULL,
		keyword            TEXT NOT NULL,
		text               TEXT NOT NULL,
		line               INTEGER NOT NULL,
		pattern            TEXT NOT NULL DEFAULT '',
		status             TEXT NOT NULL,
		duration_ms        INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX scenario_results_run ON scenario_results(run_id)`,
	`CREATE INDEX scenario_results_location ON scenario_results(feature_path, line)`,
}

func Migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		return fmt.Errorf("checking schema_version: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("initializing schema version: %w", err)
		}
	}

	var current int
	if err := db.QueryRow(`SELECT version FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(All); i++ {
		if err := apply(db, i); err != nil {
			return err
		}
	}

	return nil
}

func apply(db *sql.DB, i int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration %d: %w", i+1, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(All[i]); err != nil {
		return fmt.Errorf("migration %d failed: %w", i+1, err)
	}
	if _, err := tx.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
		return fmt.Errorf("updating schema version to %d: %w", i+1, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %d: %w", i+1, err)
	}
	return nil
}
