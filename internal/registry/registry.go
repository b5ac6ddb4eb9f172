// Package registry records transformation runs in a local SQLite database so
// that past artifacts can be traced back to their inputs.
package registry

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/YuminosukeSato/mleprep/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout has a fixed width so that started_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunStatus is the outcome of a run.
type RunStatus string

const (
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// Run is one recorded transformation run.
type Run struct {
	ID             string
	TrainPath      string
	TestPath       string
	ArtifactPath   string
	ArtifactSHA256 string
	TrainRows      int
	TestRows       int
	Features       int
	Status         RunStatus
	Error          string
	StartedAt      time.Time
	Duration       time.Duration
}

// Store is a SQLite-backed run registry.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the registry at path and applies the
// schema. Use ":memory:" for an in-memory registry.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create registry directory for %s", path)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping sqlite database")
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Record inserts run. An empty ID is filled with a new UUID and a zero
// StartedAt with the current time; the stored run is returned.
func (s *Store) Record(ctx context.Context, run Run) (*Run, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()
	if run.Status == "" {
		run.Status = StatusSucceeded
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, train_path, test_path, artifact_path, artifact_sha256,
			train_rows, test_rows, features, status, error, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.TrainPath, run.TestPath, run.ArtifactPath, run.ArtifactSHA256,
		run.TrainRows, run.TestRows, run.Features, string(run.Status), run.Error,
		run.StartedAt.Format(timeLayout), run.Duration.Milliseconds(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to record run")
	}
	return &run, nil
}

// Get returns the run with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Newf("run not found: %s", id)
	}
	return run, err
}

// List returns up to limit runs, newest first. A limit of 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := selectRuns + ` ORDER BY started_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate runs")
	}
	return runs, nil
}

const selectRuns = `SELECT id, train_path, test_path, artifact_path, artifact_sha256,
	train_rows, test_rows, features, status, error, started_at, duration_ms FROM runs`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run        Run
		status     string
		startedAt  string
		durationMs int64
	)
	err := sc.Scan(&run.ID, &run.TrainPath, &run.TestPath, &run.ArtifactPath, &run.ArtifactSHA256,
		&run.TrainRows, &run.TestRows, &run.Features, &status, &run.Error, &startedAt, &durationMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to scan run")
	}

	run.Status = RunStatus(status)
	run.Duration = time.Duration(durationMs) * time.Millisecond
	run.StartedAt, err = time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid started_at for run %s", run.ID)
	}
	return &run, nil
}

// FileSHA256 returns the hex SHA-256 digest of the file at path.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to open artifact")
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "failed to hash artifact")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
