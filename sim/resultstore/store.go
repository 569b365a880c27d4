// Package resultstore persists finished runs to a single SQLite file so
// sweeps and repeated runs can be compared later.
package resultstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/sparesim/sparesim/sim"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id         TEXT PRIMARY KEY,
	label          TEXT NOT NULL,
	seed           INTEGER NOT NULL,
	horizon        REAL NOT NULL,
	analysis_start REAL NOT NULL,
	analysis_end   REAL NOT NULL,
	created_at     TEXT NOT NULL,
	config         BLOB NOT NULL,
	summary        BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS part_cycles (
	run_id    TEXT NOT NULL,
	sim_id    INTEGER NOT NULL,
	part_id   INTEGER NOT NULL,
	cycle     INTEGER NOT NULL,
	condemned INTEGER NOT NULL,
	path      TEXT NOT NULL,
	payload   BLOB NOT NULL,
	PRIMARY KEY (run_id, sim_id)
);
CREATE TABLE IF NOT EXISTS aircraft_cycles (
	run_id      TEXT NOT NULL,
	des_id      INTEGER NOT NULL,
	aircraft_id INTEGER NOT NULL,
	path        TEXT NOT NULL,
	payload     BLOB NOT NULL,
	PRIMARY KEY (run_id, des_id)
);
CREATE TABLE IF NOT EXISTS wip (
	run_id            TEXT NOT NULL,
	time              REAL NOT NULL,
	aircraft_fleet    INTEGER NOT NULL,
	aircraft_micap    INTEGER NOT NULL,
	parts_fleet       INTEGER NOT NULL,
	parts_condition_f INTEGER NOT NULL,
	parts_depot       INTEGER NOT NULL,
	parts_condition_a INTEGER NOT NULL,
	PRIMARY KEY (run_id, time)
);`

// Store is a SQLite-backed archive of runs. Safe for concurrent use; writes
// are serialized by database/sql on a single connection.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// RunInfo is the catalogue row of one stored run.
type RunInfo struct {
	RunID     string
	Label     string
	Seed      int64
	Horizon   float64
	CreatedAt time.Time
}

// Open opens or creates the store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "sparesim.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveRun stores one run in a single transaction and returns its new run id.
func (s *Store) SaveRun(ctx context.Context, label string, cfg sim.Config, res *sim.Result) (runID string, retErr error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	sumJSON, err := json.Marshal(sim.Summarize(res))
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}

	runID = uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs(run_id, label, seed, horizon, analysis_start, analysis_end, created_at, config, summary) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, label, res.Seed, res.Horizon, res.AnalysisStart, res.AnalysisEnd,
		s.now().UTC().Format(time.RFC3339Nano), cfgJSON, sumJSON); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	for i := range res.Parts {
		p := &res.Parts[i]
		payload, err := json.Marshal(p)
		if err != nil {
			return "", fmt.Errorf("encode part cycle %d: %w", p.SimID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO part_cycles(run_id, sim_id, part_id, cycle, condemned, path, payload) VALUES(?, ?, ?, ?, ?, ?, ?)`,
			runID, int64(p.SimID), int64(p.PartID), p.Cycle, p.Condemned, p.PathString(), payload); err != nil {
			return "", fmt.Errorf("insert part cycle %d: %w", p.SimID, err)
		}
	}
	for i := range res.Aircraft {
		a := &res.Aircraft[i]
		payload, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("encode aircraft cycle %d: %w", a.DesID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO aircraft_cycles(run_id, des_id, aircraft_id, path, payload) VALUES(?, ?, ?, ?, ?)`,
			runID, int64(a.DesID), int64(a.AircraftID), a.PathString(), payload); err != nil {
			return "", fmt.Errorf("insert aircraft cycle %d: %w", a.DesID, err)
		}
	}
	for _, w := range res.WIP {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO wip(run_id, time, aircraft_fleet, aircraft_micap, parts_fleet, parts_condition_f, parts_depot, parts_condition_a)
			 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, w.Time, w.AircraftFleet, w.AircraftMicap, w.PartsFleet, w.PartsConditionF, w.PartsDepot, w.PartsConditionA); err != nil {
			return "", fmt.Errorf("insert wip at %.2f: %w", w.Time, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// Runs lists stored runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, label, seed, horizon, created_at FROM runs ORDER BY created_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []RunInfo
	for rows.Next() {
		var (
			info    RunInfo
			created string
		)
		if err := rows.Scan(&info.RunID, &info.Label, &info.Seed, &info.Horizon, &created); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("run %s created_at: %w", info.RunID, err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Summary returns the stored summary of a run.
func (s *Store) Summary(ctx context.Context, runID string) (sim.Summary, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT summary FROM runs WHERE run_id = ?`, runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return sim.Summary{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return sim.Summary{}, fmt.Errorf("select summary: %w", err)
	}
	var sum sim.Summary
	if err := json.Unmarshal(payload, &sum); err != nil {
		return sim.Summary{}, fmt.Errorf("decode summary: %w", err)
	}
	return sum, nil
}

// PartCycles returns the stored part cycle records of a run in sim_id order.
func (s *Store) PartCycles(ctx context.Context, runID string) ([]sim.PartRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM part_cycles WHERE run_id = ? ORDER BY sim_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("select part cycles: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []sim.PartRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var p sim.PartRecord
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode part cycle: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CondemnedCount counts condemned part cycles of a run.
func (s *Store) CondemnedCount(ctx context.Context, runID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM part_cycles WHERE run_id = ? AND condemned = 1`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count condemned: %w", err)
	}
	return n, nil
}

// MeanMicap averages the MICAP WIP column of a run over its analysis
// window.
func (s *Store) MeanMicap(ctx context.Context, runID string) (float64, error) {
	var start, end float64
	err := s.db.QueryRowContext(ctx,
		`SELECT analysis_start, analysis_end FROM runs WHERE run_id = ?`, runID).Scan(&start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return 0, fmt.Errorf("mean micap: %w", err)
	}
	var v float64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(aircraft_micap), 0) FROM wip WHERE run_id = ? AND time >= ? AND time <= ?`,
		runID, start, end).Scan(&v); err != nil {
		return 0, fmt.Errorf("mean micap: %w", err)
	}
	return v, nil
}
