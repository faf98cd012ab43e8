// Package store persists the run ledger and field statistics in a
// SQLite database, and exports the statistics as CSV and GeoPackage.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"floodbatch/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	scenario       TEXT NOT NULL,
	return_period  INTEGER NOT NULL,
	hydrograph     TEXT NOT NULL,
	boundary       TEXT NOT NULL,
	engine         TEXT NOT NULL,
	status         TEXT NOT NULL,
	output_dir     TEXT NOT NULL,
	started_at     TEXT,
	finished_at    TEXT,
	error          TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs(scenario);

CREATE TABLE IF NOT EXISTS field_stats (
	field_id         TEXT NOT NULL,
	scenario         TEXT NOT NULL,
	return_period    INTEGER NOT NULL,
	mean_depth       REAL NOT NULL,
	max_depth        REAL NOT NULL,
	max_velocity     REAL NOT NULL,
	duration_hours   REAL NOT NULL,
	flooded_fraction REAL NOT NULL,
	flooded_area_m2  REAL NOT NULL,
	PRIMARY KEY (field_id, scenario)
);
`

// Store wraps the SQLite database holding runs and field statistics
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// concurrent run recording during a batch
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun inserts or updates one run record
func (s *Store) SaveRun(run domain.Run) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, scenario, return_period, hydrograph, boundary,
			engine, status, output_dir, started_at, finished_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			output_dir = excluded.output_dir,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			error = excluded.error`,
		run.ID, run.Scenario.Name, run.Scenario.ReturnPeriodYears,
		run.Scenario.HydrographPath, run.Scenario.BoundaryLine,
		run.Engine, string(run.Status), run.OutputDir,
		timeColumn(run.StartedAt), timeColumn(run.FinishedAt), run.Error)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", run.ID, err)
	}
	return nil
}

// Runs returns every run, newest first
func (s *Store) Runs() ([]domain.Run, error) {
	return s.queryRuns(`
		SELECT id, scenario, return_period, hydrograph, boundary,
			engine, status, output_dir, started_at, finished_at, error
		FROM runs ORDER BY started_at DESC, id`)
}

// LatestRuns returns the most recent run per scenario
func (s *Store) LatestRuns() ([]domain.Run, error) {
	return s.queryRuns(`
		SELECT id, scenario, return_period, hydrograph, boundary,
			engine, status, output_dir, started_at, finished_at, error
		FROM runs r
		WHERE started_at = (
			SELECT MAX(started_at) FROM runs WHERE scenario = r.scenario
		)
		ORDER BY return_period, scenario`)
}

// Summary aggregates the latest run per scenario into batch counts
func (s *Store) Summary() (domain.BatchSummary, error) {
	runs, err := s.LatestRuns()
	if err != nil {
		return domain.BatchSummary{}, err
	}
	var summary domain.BatchSummary
	for _, r := range runs {
		summary.Add(r.Status)
	}
	return summary, nil
}

func (s *Store) queryRuns(q string, args ...any) ([]domain.Run, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var (
			r                 domain.Run
			status            string
			started, finished sql.NullString
		)
		err := rows.Scan(&r.ID, &r.Scenario.Name, &r.Scenario.ReturnPeriodYears,
			&r.Scenario.HydrographPath, &r.Scenario.BoundaryLine,
			&r.Engine, &status, &r.OutputDir, &started, &finished, &r.Error)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Status = domain.RunStatus(status)
		if r.StartedAt, err = parseTimeColumn(started); err != nil {
			return nil, err
		}
		if r.FinishedAt, err = parseTimeColumn(finished); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SaveStats replaces the statistics for the given field/scenario pairs
func (s *Store) SaveStats(stats []domain.FieldStats) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("saving stats: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO field_stats
			(field_id, scenario, return_period, mean_depth, max_depth,
			max_velocity, duration_hours, flooded_fraction, flooded_area_m2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("saving stats: %w", err)
	}
	defer stmt.Close()

	for _, st := range stats {
		if _, err := stmt.Exec(st.FieldID, st.Scenario, st.ReturnPeriodYears,
			st.MeanDepth, st.MaxDepth, st.MaxVelocity,
			st.DurationHours, st.FloodedFraction, st.FloodedAreaM2); err != nil {
			return fmt.Errorf("saving stats for field %s: %w", st.FieldID, err)
		}
	}
	return tx.Commit()
}

// Stats returns every field statistic ordered by return period then field
func (s *Store) Stats() ([]domain.FieldStats, error) {
	return s.queryStats(`
		SELECT field_id, scenario, return_period, mean_depth, max_depth,
			max_velocity, duration_hours, flooded_fraction, flooded_area_m2
		FROM field_stats ORDER BY return_period, field_id`)
}

// StatsForScenario returns the statistics for one scenario
func (s *Store) StatsForScenario(name string) ([]domain.FieldStats, error) {
	return s.queryStats(`
		SELECT field_id, scenario, return_period, mean_depth, max_depth,
			max_velocity, duration_hours, flooded_fraction, flooded_area_m2
		FROM field_stats WHERE scenario = ? ORDER BY field_id`, name)
}

func (s *Store) queryStats(q string, args ...any) ([]domain.FieldStats, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.FieldStats
	for rows.Next() {
		var st domain.FieldStats
		if err := rows.Scan(&st.FieldID, &st.Scenario, &st.ReturnPeriodYears,
			&st.MeanDepth, &st.MaxDepth, &st.MaxVelocity,
			&st.DurationHours, &st.FloodedFraction, &st.FloodedAreaM2); err != nil {
			return nil, fmt.Errorf("scanning stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func timeColumn(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeColumn(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, fmt.Errorf("parsing stored time %q: %w", v.String, err)
	}
	return &t, nil
}
