// Package store is the durable fact store `server` mode uses to avoid
// re-extracting EDB facts for files whose content hasn't changed across
// requests (SPEC_FULL.md §3.2). The in-memory contract of spec.md §4.4 is
// unchanged: one-shot commands (analyze/metrics/debt) never touch this
// package, and the long-running server only consults it to decide whether
// a file needs re-parsing before handing facts to a fresh
// datalog.Engine.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"anteater/internal/datalog"
	"anteater/internal/logging"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
	path TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS facts (
	path TEXT NOT NULL,
	relation TEXT NOT NULL,
	args TEXT NOT NULL,
	FOREIGN KEY(path) REFERENCES files(path)
);
CREATE INDEX IF NOT EXISTS facts_path_idx ON facts(path);
`

// Store is a sqlite-backed persistence layer for one file's worth of facts
// at a time, keyed by path and a content hash. Grounded on the teacher's
// internal/mangle/engine.go Persistence interface
// (ReplaceFactsForFile(ctx, file, facts, contentHash) / LoadFacts(ctx)),
// re-targeted from Mangle's ast.Fact to this spec's own datalog.Tuple and
// split into a narrower per-file API (FactsForFile/FileHash) instead of a
// single whole-store LoadFacts, since the server checks one file's hash at
// a time rather than warming its entire engine from disk on every request.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) the sqlite database at path, creating parent
// directories as needed, and ensures the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// FileHash returns the content hash last persisted for path, or ok=false if
// the file has never been stored.
func (s *Store) FileHash(ctx context.Context, path string) (hash string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT content_hash FROM files WHERE path = ?`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: read file hash for %s: %w", path, err)
	}
	return hash, true, nil
}

// FactsForFile returns every fact stored for path, regardless of hash. A
// caller should only trust these against the current file content after
// confirming FileHash matches.
func (s *Store) FactsForFile(ctx context.Context, path string) ([]datalog.Tuple, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT relation, args FROM facts WHERE path = ?`, path)
	if err != nil {
		return nil, fmt.Errorf("store: read facts for %s: %w", path, err)
	}
	defer rows.Close()

	var tuples []datalog.Tuple
	for rows.Next() {
		var relation, argsJSON string
		if err := rows.Scan(&relation, &argsJSON); err != nil {
			return nil, fmt.Errorf("store: scan fact row: %w", err)
		}
		args, err := decodeArgs(argsJSON)
		if err != nil {
			return nil, fmt.Errorf("store: decode args for %s: %w", relation, err)
		}
		tuples = append(tuples, datalog.NewTuple(relation, args...))
	}
	return tuples, rows.Err()
}

// ReplaceFactsForFile atomically replaces path's stored facts with facts,
// recording hash as the content hash they were extracted from (mirrors the
// teacher's ReplaceFactsForFileWithHash).
func (s *Store) ReplaceFactsForFile(ctx context.Context, path string, facts []datalog.Tuple, hash string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM facts WHERE path = ?`, path); err != nil {
		return fmt.Errorf("store: clear facts for %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO files(path, content_hash) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET content_hash = excluded.content_hash`,
		path, hash); err != nil {
		return fmt.Errorf("store: upsert file hash for %s: %w", path, err)
	}

	for _, t := range facts {
		argsJSON, err := json.Marshal(t.Args)
		if err != nil {
			return fmt.Errorf("store: encode args for %s: %w", t.Relation, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO facts(path, relation, args) VALUES (?, ?, ?)`,
			path, t.Relation, string(argsJSON)); err != nil {
			return fmt.Errorf("store: insert fact %s: %w", t.Relation, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit facts for %s: %w", path, err)
	}
	logging.Get(logging.CategoryStore).Debug("store: replaced %d facts for %s (hash=%s)", len(facts), path, hash)
	return nil
}

// decodeArgs reverses json.Marshal of a []any, using json.Number so
// integer arguments round-trip as Go ints rather than float64 (spec.md
// §4.3 requires fact arguments be "stable integers or strings").
func decodeArgs(argsJSON string) ([]any, error) {
	dec := json.NewDecoder(strings.NewReader(argsJSON))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	out := make([]any, len(raw))
	for i, v := range raw {
		if num, ok := v.(json.Number); ok {
			if n, err := num.Int64(); err == nil {
				out[i] = int(n)
				continue
			}
			if f, err := num.Float64(); err == nil {
				out[i] = f
				continue
			}
		}
		out[i] = v
	}
	return out, nil
}
