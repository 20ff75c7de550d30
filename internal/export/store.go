// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

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
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/dicom-stats/pkg/types"
)

// ErrRunNotFound is returned by LoadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Store keeps extraction runs in a SQLite database. Each run stores its
// column list once; cells are stored per row and column so runs with
// different field selections share one schema.
type Store struct {
	db *sql.DB
}

// RunInfo describes a stored run.
type RunInfo struct {
	ID        string
	CreatedAt time.Time
	Fields    []string
	Records   int
}

// OpenStore opens or creates the database at path and ensures the schema
// exists.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			fields TEXT NOT NULL,
			record_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			source_path TEXT,
			checksum TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_run_id ON records(run_id, position)`,
		`CREATE TABLE IF NOT EXISTS cells (
			row_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
			field TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (row_id, field)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun stores table as a new run and returns its ID. The run is written
// in one transaction; on error nothing is kept.
func (s *Store) SaveRun(ctx context.Context, table *types.Table) (string, error) {
	runID := uuid.NewString()
	fieldsJSON, err := json.Marshal(table.Fields)
	if err != nil {
		return "", fmt.Errorf("encoding fields: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, fields, record_count) VALUES (?, ?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339Nano), string(fieldsJSON), len(table.Records),
	); err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	rowStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (run_id, position, source_path, checksum) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing row insert: %w", err)
	}
	defer rowStmt.Close()

	cellStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cells (row_id, field, value) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing cell insert: %w", err)
	}
	defer cellStmt.Close()

	for i, rec := range table.Records {
		res, err := rowStmt.ExecContext(ctx, runID, i, rec.SourcePath, rec.Checksum)
		if err != nil {
			return "", fmt.Errorf("inserting row %d: %w", i, err)
		}
		rowID, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("reading row id: %w", err)
		}
		for _, field := range table.Fields {
			if _, err := cellStmt.ExecContext(ctx, rowID, field, rec.Get(field)); err != nil {
				return "", fmt.Errorf("inserting cell %s of row %d: %w", field, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// LoadRun reads a stored run back into a table with its original column
// and row order.
func (s *Store) LoadRun(ctx context.Context, runID string) (*types.Table, error) {
	var fieldsJSON string
	err := s.db.QueryRowContext(ctx, `SELECT fields FROM runs WHERE id = ?`, runID).Scan(&fieldsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}

	table := &types.Table{}
	if err := json.Unmarshal([]byte(fieldsJSON), &table.Fields); err != nil {
		return nil, fmt.Errorf("decoding fields: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.source_path, r.checksum, c.field, c.value
		 FROM records r LEFT JOIN cells c ON c.row_id = r.id
		 WHERE r.run_id = ?
		 ORDER BY r.position, r.id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer rows.Close()

	var current *types.Record
	lastID := int64(-1)
	for rows.Next() {
		var (
			id               int64
			source, checksum sql.NullString
			field, value     sql.NullString
		)
		if err := rows.Scan(&id, &source, &checksum, &field, &value); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if id != lastID {
			table.Records = append(table.Records, types.Record{
				SourcePath: source.String,
				Checksum:   checksum.String,
				Values:     make(map[string]string, len(table.Fields)),
			})
			current = &table.Records[len(table.Records)-1]
			lastID = id
		}
		if field.Valid {
			current.Values[field.String] = value.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return table, nil
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, fields, record_count FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var (
			info       RunInfo
			created    string
			fieldsJSON string
		)
		if err := rows.Scan(&info.ID, &created, &fieldsJSON, &info.Records); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		if err := json.Unmarshal([]byte(fieldsJSON), &info.Fields); err != nil {
			return nil, fmt.Errorf("decoding fields of run %s: %w", info.ID, err)
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// WriteSQLite appends table as a new run to the database at path.
func WriteSQLite(ctx context.Context, table *types.Table, path string) (string, error) {
	if path == StdoutPath || path == "" {
		return "", fmt.Errorf("%s: %w", types.FormatSQLite, ErrStdoutUnsupported)
	}
	s, err := OpenStore(path)
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.SaveRun(ctx, table)
}
