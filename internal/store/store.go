/*
Package store archives stress runs in SQLite so results can be fetched
again by ID from the API or compared across presets later.

TABLES:

	runs:      one row per sweep (calibration, base cashflow, summary JSON)
	run_rows:  the result table, keyed by (run_id, rate_shock_bp, occupancy_multiplier)

The primary key on run_rows mirrors the table invariant that a grid cell
appears once per run.

USAGE:

	s, err := store.Open("./data/runs.db")
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()
	id, err := s.Save(ctx, outcome)
*/
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"rent-stress/internal/scenario"
	"rent-stress/internal/stress"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrRunNotFound is returned when a run ID is not in the archive.
var ErrRunNotFound = errors.New("run not found")

// Run is the archived metadata of one sweep.
type Run struct {
	ID                 string         `json:"id"`
	Preset             string         `json:"preset"`
	Encoding           string         `json:"theta_source"`
	Theta              float64        `json:"theta"`
	BaseRate           float64        `json:"base_rate"`
	Debt               float64        `json:"debt"`
	GrossAnnualRent    float64        `json:"gross_annual_rent"`
	OperatingCostRatio float64        `json:"operating_cost_ratio"`
	Summary            stress.Summary `json:"summary"`
	CreatedAt          time.Time      `json:"created_at"`
}

// Store is a SQLite-backed run archive.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the archive at path. Use ":memory:" for a
// throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		preset TEXT NOT NULL,
		encoding TEXT NOT NULL,
		theta REAL NOT NULL,
		base_rate REAL NOT NULL,
		debt REAL NOT NULL,
		gross_annual_rent REAL NOT NULL,
		operating_cost_ratio REAL NOT NULL,
		summary_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_preset ON runs(preset);

	CREATE TABLE IF NOT EXISTS run_rows (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		interest_rate REAL NOT NULL,
		rate_shock_bp REAL NOT NULL,
		occupancy_multiplier REAL NOT NULL,
		net_cashflow REAL NOT NULL,
		dscr REAL NOT NULL,
		PRIMARY KEY (run_id, rate_shock_bp, occupancy_multiplier)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save archives an outcome and returns its new run ID.
func (s *Store) Save(ctx context.Context, out *scenario.Outcome) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, err := json.Marshal(out.Summary)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	id := uuid.NewString()
	t := out.Table

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, preset, encoding, theta, base_rate, debt,
			gross_annual_rent, operating_cost_ratio, summary_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, out.Calibration.Name, out.Calibration.Encoding, t.Theta, out.BaseRate, t.Debt,
		t.Cashflow.GrossAnnualRent, t.Cashflow.OperatingCostRatio, string(summary),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_rows (run_id, seq, interest_rate, rate_shock_bp,
			occupancy_multiplier, net_cashflow, dscr)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, r := range t.Rows {
		if _, err := stmt.ExecContext(ctx, id, i, r.InterestRate, r.RateShockBP,
			r.OccupancyMultiplier, r.NetCashflow, r.DSCR); err != nil {
			return "", fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

const runColumns = `id, preset, encoding, theta, base_rate, debt,
	gross_annual_rent, operating_cost_ratio, summary_json, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var r Run
	var summary, createdAt string
	if err := sc.Scan(&r.ID, &r.Preset, &r.Encoding, &r.Theta, &r.BaseRate, &r.Debt,
		&r.GrossAnnualRent, &r.OperatingCostRatio, &summary, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(summary), &r.Summary); err != nil {
		return nil, fmt.Errorf("run %s summary: %w", r.ID, err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &r, nil
}

// Get returns run metadata, or ErrRunNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	return r, err
}

// List returns runs newest first, optionally filtered by preset.
func (s *Store) List(ctx context.Context, preset string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + runColumns + " FROM runs"
	var args []any
	if preset != "" {
		query += " WHERE preset = ?"
		args = append(args, preset)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// Rows returns a run's result table in its original order.
func (s *Store) Rows(ctx context.Context, id string) ([]stress.Row, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT interest_rate, rate_shock_bp, occupancy_multiplier, net_cashflow, dscr
		FROM run_rows WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []stress.Row
	for rows.Next() {
		var r stress.Row
		if err := rows.Scan(&r.InterestRate, &r.RateShockBP, &r.OccupancyMultiplier, &r.NetCashflow, &r.DSCR); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes a run and its rows.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	return nil
}
