// Package sqlite implements the lab registry on an embedded SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/srl-labs/vscode-containerlab-sub006/internal/domain"

	_ "modernc.org/sqlite"
)

// Registry implements repository.Registry using SQLite
type Registry struct {
	db *sql.DB
}

// New opens (or creates) the registry database at dbPath.
func New(dbPath string) (*Registry, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	reg := &Registry{db: db}
	if err := reg.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return reg, nil
}

func (r *Registry) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS labs (
		path TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		node_count INTEGER NOT NULL DEFAULT 0,
		link_count INTEGER NOT NULL DEFAULT 0,
		last_saved DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_labs_last_saved ON labs(last_saved);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Touch inserts or refreshes the record for one topology file. An empty
// name falls back to the file name without the topology suffix.
func (r *Registry) Touch(ctx context.Context, rec domain.LabRecord) error {
	name := rec.Name
	if name == "" {
		name = displayName(rec.Path)
	}

	saved := rec.LastSaved
	if saved.IsZero() {
		saved = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO labs (path, name, node_count, link_count, last_saved)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			node_count = excluded.node_count,
			link_count = excluded.link_count,
			last_saved = excluded.last_saved
	`, rec.Path, name, rec.NodeCount, rec.LinkCount, saved)
	if err != nil {
		return fmt.Errorf("failed to upsert lab record: %w", err)
	}

	return nil
}

// Get returns the record for a path, or nil when unknown.
func (r *Registry) Get(ctx context.Context, path string) (*domain.LabRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT path, name, node_count, link_count, last_saved
		FROM labs WHERE path = ?
	`, path)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lab record: %w", err)
	}
	return rec, nil
}

// List returns all records, most recently saved first.
func (r *Registry) List(ctx context.Context) ([]domain.LabRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT path, name, node_count, link_count, last_saved
		FROM labs ORDER BY last_saved DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query labs: %w", err)
	}
	defer rows.Close()

	var records []domain.LabRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lab record: %w", err)
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// Forget removes the record for a path.
func (r *Registry) Forget(ctx context.Context, path string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM labs WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete lab record: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.LabRecord, error) {
	var rec domain.LabRecord
	if err := s.Scan(&rec.Path, &rec.Name, &rec.NodeCount, &rec.LinkCount, &rec.LastSaved); err != nil {
		return nil, err
	}
	return &rec, nil
}

// displayName derives a listing name from a topology file path, stripping
// the conventional *.clab.yml / *.clab.yaml suffixes.
func displayName(path string) string {
	base := filepath.Base(path)
	for _, suffix := range []string{".clab.yml", ".clab.yaml", ".yml", ".yaml"} {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	return base
}
