// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps the history of summarization runs and the LLM
// response cache in a SQLite database.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// DefaultPath is the database location used when none is configured.
const DefaultPath = "data/summarizer.db"

// ErrNotFound is returned when a run ID matches no run.
var ErrNotFound = errors.New("run not found")

// timeLayout is fixed width so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the summarizer SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and creates the schema if it
// does not exist.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
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
			pdf_path TEXT NOT NULL,
			pdf_sha256 TEXT,
			provider TEXT NOT NULL,
			model TEXT,
			output_path TEXT,
			status TEXT NOT NULL,
			error TEXT,
			pages INTEGER NOT NULL DEFAULT 0,
			chunks INTEGER NOT NULL DEFAULT 0,
			meta_sections INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			global_summary TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS run_sections (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			section INTEGER NOT NULL,
			summary TEXT NOT NULL,
			PRIMARY KEY (run_id, section)
		)`,
		`CREATE TABLE IF NOT EXISTS llm_cache (
			key TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			response TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun records a run as running. It assigns an ID when run.ID is empty
// and sets StartedAt, returning the stored record.
func (s *Store) BeginRun(ctx context.Context, run types.Run) (types.Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	run.Status = types.RunRunning
	run.StartedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, pdf_path, pdf_sha256, provider, model, output_path, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.PDFPath, run.PDFSHA256, string(run.Provider), run.Model,
		run.OutputPath, string(run.Status), run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return types.Run{}, fmt.Errorf("inserting run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run succeeded and stores its counts, summary, and
// meta-summaries.
func (s *Store) CompleteRun(ctx context.Context, id, outputPath string, res *types.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	out, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, output_path = ?, pages = ?, chunks = ?, meta_sections = ?,
			finished_at = ?, global_summary = ?, error = NULL
		 WHERE id = ?`,
		string(types.RunSucceeded), outputPath, len(res.Pages), len(res.Chunks), len(res.MetaSections),
		s.now().UTC().Format(timeLayout), res.GlobalSummary, id,
	)
	if err != nil {
		return fmt.Errorf("updating run %s: %w", id, err)
	}
	if err := requireRow(out, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_sections WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("deleting old sections: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO run_sections (run_id, section, summary) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range res.MetaSummaries {
		if _, err := stmt.ExecContext(ctx, id, m.Section, m.Summary); err != nil {
			return fmt.Errorf("inserting section %d: %w", m.Section, err)
		}
	}

	return tx.Commit()
}

// FailRun marks a run failed with the error text.
func (s *Store) FailRun(ctx context.Context, id string, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	out, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(types.RunFailed), msg, s.now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("updating run %s: %w", id, err)
	}
	return requireRow(out, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update of run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

const runColumns = `id, pdf_path, pdf_sha256, provider, model, output_path, status, error,
	pages, chunks, meta_sections, started_at, finished_at, global_summary`

// ListRuns returns up to limit runs, newest first, without their
// meta-summaries. A limit of zero or less returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]types.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns the run whose ID is id or starts with id, including its
// meta-summaries. A prefix that matches several runs is an error.
func (s *Store) GetRun(ctx context.Context, id string) (types.Run, error) {
	if id == "" {
		return types.Run{}, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id = ? DESC LIMIT 2`,
		id, escapeLike(id)+"%", id)
	if err != nil {
		return types.Run{}, fmt.Errorf("querying run %s: %w", id, err)
	}
	var matches []types.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return types.Run{}, err
		}
		matches = append(matches, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return types.Run{}, err
	}

	switch {
	case len(matches) == 0:
		return types.Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(matches) > 1 && matches[0].ID != id:
		return types.Run{}, fmt.Errorf("run id prefix %q is ambiguous", id)
	}

	run := matches[0]
	run.MetaSummaries, err = s.sections(ctx, run.ID)
	if err != nil {
		return types.Run{}, err
	}
	return run, nil
}

func (s *Store) sections(ctx context.Context, runID string) ([]types.MetaSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT section, summary FROM run_sections WHERE run_id = ? ORDER BY section`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying sections of %s: %w", runID, err)
	}
	defer rows.Close()

	var out []types.MetaSummary
	for rows.Next() {
		var m types.MetaSummary
		if err := rows.Scan(&m.Section, &m.Summary); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (types.Run, error) {
	var (
		r                                          types.Run
		sha, model, outPath, errText, finished, gs sql.NullString
		provider, status, started                  string
	)
	err := sc.Scan(&r.ID, &r.PDFPath, &sha, &provider, &model, &outPath, &status, &errText,
		&r.Pages, &r.Chunks, &r.MetaSections, &started, &finished, &gs)
	if err != nil {
		return types.Run{}, fmt.Errorf("scanning run: %w", err)
	}

	r.PDFSHA256 = sha.String
	r.Provider = types.Provider(provider)
	r.Model = model.String
	r.OutputPath = outPath.String
	r.Status = types.RunStatus(status)
	r.Error = errText.String
	r.GlobalSummary = gs.String
	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return types.Run{}, fmt.Errorf("parsing started_at of %s: %w", r.ID, err)
	}
	if finished.Valid && finished.String != "" {
		if r.FinishedAt, err = time.Parse(timeLayout, finished.String); err != nil {
			return types.Run{}, fmt.Errorf("parsing finished_at of %s: %w", r.ID, err)
		}
	}
	return r, nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

// FileSHA256 returns the hex SHA-256 of the file at path.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
