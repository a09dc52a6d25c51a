// Package monitor persists per-trial curriculum data in SQLite for later
// inspection and fixture export.
package monitor

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	task         TEXT NOT NULL,
	policy       TEXT,
	seed         INTEGER NOT NULL DEFAULT 0,
	init_phase   INTEGER NOT NULL DEFAULT 0,
	options_json TEXT,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trials (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	trial_num   INTEGER NOT NULL,
	phase       INTEGER NOT NULL,
	performance REAL NOT NULL,
	reward      REAL NOT NULL,
	steps       INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS phase_transitions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	trial_num   INTEGER NOT NULL,
	from_phase  INTEGER NOT NULL,
	to_phase    INTEGER NOT NULL,
	window_mean REAL NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// #endregion schema

// #region store
// Store manages curriculum run data in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store

// #region runs
// BeginRun registers a new run and returns its record with a fresh ID.
func (s *Store) BeginRun(taskName, policy string, seed int64, initPhase int, optionsJSON string) (RunRecord, error) {
	rec := RunRecord{
		RunID:       uuid.New().String(),
		Task:        taskName,
		Policy:      policy,
		Seed:        seed,
		InitPhase:   initPhase,
		OptionsJSON: optionsJSON,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, task, policy, seed, init_phase, options_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Task, nullIfEmpty(rec.Policy), rec.Seed, rec.InitPhase,
		nullIfEmpty(rec.OptionsJSON), rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}
	return rec, nil
}

// GetRun retrieves one run by ID.
func (s *Store) GetRun(runID string) (RunRecord, error) {
	var rec RunRecord
	var policy, optionsJSON sql.NullString
	var createdStr string
	err := s.db.QueryRow(
		`SELECT run_id, task, policy, seed, init_phase, options_json, created_at
		 FROM runs WHERE run_id = ?`, runID,
	).Scan(&rec.RunID, &rec.Task, &policy, &rec.Seed, &rec.InitPhase, &optionsJSON, &createdStr)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	if policy.Valid {
		rec.Policy = policy.String
	}
	if optionsJSON.Valid {
		rec.OptionsJSON = optionsJSON.String
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// LatestRun returns the most recently created run.
func (s *Store) LatestRun() (RunRecord, error) {
	var runID string
	err := s.db.QueryRow(
		`SELECT run_id FROM runs ORDER BY created_at DESC LIMIT 1`,
	).Scan(&runID)
	if err != nil {
		return RunRecord{}, fmt.Errorf("latest run: %w", err)
	}
	return s.GetRun(runID)
}

// ListRuns returns the most recent runs.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, task, policy, seed, init_phase, options_json, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var policy, optionsJSON sql.NullString
		var createdStr string
		if err := rows.Scan(&rec.RunID, &rec.Task, &policy, &rec.Seed, &rec.InitPhase, &optionsJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if policy.Valid {
			rec.Policy = policy.String
		}
		if optionsJSON.Valid {
			rec.OptionsJSON = optionsJSON.String
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion runs

// #region trials
// LogTrial appends one completed trial.
func (s *Store) LogTrial(rec TrialRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO trials (run_id, trial_num, phase, performance, reward, steps, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.TrialNum, rec.Phase, rec.Performance, rec.Reward, rec.Steps,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log trial: %w", err)
	}
	return nil
}

// RecentTrials returns the most recent trials of a run, newest first.
func (s *Store) RecentTrials(runID string, limit int) ([]TrialRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, trial_num, phase, performance, reward, steps, created_at
		 FROM trials WHERE run_id = ? ORDER BY trial_num DESC LIMIT ?`, runID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent trials: %w", err)
	}
	defer rows.Close()

	var records []TrialRecord
	for rows.Next() {
		var rec TrialRecord
		var createdStr string
		if err := rows.Scan(&rec.RunID, &rec.TrialNum, &rec.Phase, &rec.Performance, &rec.Reward, &rec.Steps, &createdStr); err != nil {
			return nil, fmt.Errorf("scan trial: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// MeanPerformance computes the mean performance over the last n trials of a
// run. Returns the mean and how many trials contributed.
func (s *Store) MeanPerformance(runID string, lastN int) (float64, int, error) {
	var mean sql.NullFloat64
	var count int
	err := s.db.QueryRow(
		`SELECT AVG(performance), COUNT(*) FROM (
			SELECT performance FROM trials WHERE run_id = ?
			ORDER BY trial_num DESC LIMIT ?
		 )`, runID, lastN,
	).Scan(&mean, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("mean performance: %w", err)
	}
	if !mean.Valid {
		return 0, 0, nil
	}
	return mean.Float64, count, nil
}

// PhaseStats aggregates trial counts and mean performance per phase.
func (s *Store) PhaseStats(runID string) ([]PhaseStat, error) {
	rows, err := s.db.Query(
		`SELECT phase, COUNT(*), AVG(performance) FROM trials
		 WHERE run_id = ? GROUP BY phase ORDER BY phase ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("phase stats: %w", err)
	}
	defer rows.Close()

	var stats []PhaseStat
	for rows.Next() {
		var st PhaseStat
		if err := rows.Scan(&st.Phase, &st.Trials, &st.MeanPerf); err != nil {
			return nil, fmt.Errorf("scan phase stat: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// #endregion trials

// #region transitions
// LogTransition appends one phase advancement.
func (s *Store) LogTransition(rec TransitionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO phase_transitions (run_id, trial_num, from_phase, to_phase, window_mean, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.TrialNum, rec.FromPhase, rec.ToPhase, rec.WindowMean,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log transition: %w", err)
	}
	return nil
}

// Transitions returns a run's phase advancements in trial order.
func (s *Store) Transitions(runID string) ([]TransitionRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, trial_num, from_phase, to_phase, window_mean, created_at
		 FROM phase_transitions WHERE run_id = ? ORDER BY trial_num ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("transitions: %w", err)
	}
	defer rows.Close()

	var records []TransitionRecord
	for rows.Next() {
		var rec TransitionRecord
		var createdStr string
		if err := rows.Scan(&rec.RunID, &rec.TrialNum, &rec.FromPhase, &rec.ToPhase, &rec.WindowMean, &createdStr); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion transitions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
