// Package state persists run history to SQLite: one row per run and
// one per dispatched instance. Workers update instance rows
// concurrently, so the store serializes writes through a single
// connection.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/leapstack-labs/chauffeur/pkg/core"
)

// SQLiteStore implements core.Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new store instance. The database is not
// opened until Open is called.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens the SQLite database at path, creating parent directories
// as needed. Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}

	// SQLite supports one writer; a single connection avoids
	// SQLITE_BUSY under concurrent instance updates.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping state database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// CreateRun records the start of a new sweep run.
func (s *SQLiteStore) CreateRun(configPath string, workers int, dryRun bool) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.Run{
		ID:         generateID(),
		ConfigPath: configPath,
		Workers:    workers,
		DryRun:     dryRun,
		Status:     core.RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("config", configPath))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, config_path, workers, dry_run, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.ConfigPath, run.Workers, boolToInt(run.DryRun), string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, config_path, workers, dry_run, status, error, started_at, completed_at
		 FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with the given status.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(status), nullable(errMsg), now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, config_path, workers, dry_run, status, error, started_at, completed_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordInstanceRun inserts a new instance run row, assigning its ID.
func (s *SQLiteStore) RecordInstanceRun(ir *core.InstanceRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if ir.ID == "" {
		ir.ID = generateID()
	}
	if ir.StartedAt.IsZero() {
		ir.StartedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO instance_runs (id, run_id, group_name, group_index, work_dir, status, error, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ir.ID, ir.RunID, ir.Group, ir.Index, ir.WorkDir, string(ir.Status), nullable(ir.Error), ir.StartedAt, ir.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record instance run: %w", err)
	}
	return nil
}

// UpdateInstanceRun updates the status, working directory, error, and
// duration of an instance run.
func (s *SQLiteStore) UpdateInstanceRun(id string, status core.InstanceRunStatus, workDir, errMsg string, durationMS int64) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`UPDATE instance_runs SET status = ?, work_dir = ?, error = ?, duration_ms = ? WHERE id = ?`,
		string(status), workDir, nullable(errMsg), durationMS, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update instance run: %w", err)
	}
	return nil
}

// GetInstanceRunsForRun returns every instance run of a run, in
// recorded order.
func (s *SQLiteStore) GetInstanceRunsForRun(runID string) ([]*core.InstanceRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, group_name, group_index, work_dir, status, error, started_at, duration_ms
		 FROM instance_runs WHERE run_id = ? ORDER BY started_at, group_name, group_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list instance runs: %w", err)
	}
	defer rows.Close()

	var instanceRuns []*core.InstanceRun
	for rows.Next() {
		ir := &core.InstanceRun{}
		var status string
		var errText, workDir sql.NullString
		if err := rows.Scan(&ir.ID, &ir.RunID, &ir.Group, &ir.Index, &workDir, &status, &errText, &ir.StartedAt, &ir.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan instance run: %w", err)
		}
		ir.WorkDir = workDir.String
		ir.Status = core.InstanceRunStatus(status)
		ir.Error = errText.String
		instanceRuns = append(instanceRuns, ir)
	}
	return instanceRuns, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*core.Run, error) {
	run := &core.Run{}
	var status string
	var errText sql.NullString
	var dryRun int
	var completedAt sql.NullTime
	if err := row.Scan(&run.ID, &run.ConfigPath, &run.Workers, &dryRun, &status, &errText, &run.StartedAt, &completedAt); err != nil {
		return nil, err
	}
	run.DryRun = dryRun != 0
	run.Status = core.RunStatus(status)
	run.Error = errText.String
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return run, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
