package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"bookstore-be/internal/db"
)

const migrationsTableDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type migrationFile struct {
	Version string
	Path    string
}

// loadMigrations lists the *.sql files in dir ordered by file name.
func loadMigrations(dir string) ([]migrationFile, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("list migrations in %s: %w", dir, err)
	}
	sort.Strings(paths)

	files := make([]migrationFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, migrationFile{Version: filepath.Base(p), Path: p})
	}
	return files, nil
}

type migrator struct {
	conn *sql.DB
	out  io.Writer
}

func (m *migrator) ensureTable(ctx context.Context) error {
	if _, err := m.conn.ExecContext(ctx, migrationsTableDDL); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	return nil
}

// applied returns every recorded version, most recent last.
func (m *migrator) applied(ctx context.Context) ([]string, map[string]time.Time, error) {
	rows, err := m.conn.QueryContext(ctx,
		`SELECT version, applied_at FROM schema_migrations ORDER BY applied_at, version`)
	if err != nil {
		return nil, nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	var order []string
	at := map[string]time.Time{}
	for rows.Next() {
		var v string
		var t time.Time
		if err := rows.Scan(&v, &t); err != nil {
			return nil, nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		order = append(order, v)
		at[v] = t
	}
	return order, at, rows.Err()
}

// Up applies each pending file in its own transaction together with its
// schema_migrations row.
func (m *migrator) Up(ctx context.Context, files []migrationFile) (int, error) {
	_, done, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, f := range files {
		if _, ok := done[f.Version]; ok {
			continue
		}
		content, err := os.ReadFile(f.Path)
		if err != nil {
			return n, fmt.Errorf("read %s: %w", f.Path, err)
		}

		fmt.Fprintf(m.out, "applying %s\n", f.Version)
		err = db.WithTx(ctx, m.conn, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, db.MigrationSection(string(content), "Up")); err != nil {
				return fmt.Errorf("migration %s: %w", f.Version, err)
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, f.Version)
			return err
		})
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Down rolls back the last steps applied migrations, newest first.
func (m *migrator) Down(ctx context.Context, files []migrationFile, steps int) (int, error) {
	order, _, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	byVersion := make(map[string]migrationFile, len(files))
	for _, f := range files {
		byVersion[f.Version] = f
	}

	n := 0
	for i := len(order) - 1; i >= 0 && n < steps; i-- {
		version := order[i]
		f, ok := byVersion[version]
		if !ok {
			return n, fmt.Errorf("migration file not found for version %s", version)
		}
		content, err := os.ReadFile(f.Path)
		if err != nil {
			return n, fmt.Errorf("read %s: %w", f.Path, err)
		}

		fmt.Fprintf(m.out, "rolling back %s\n", version)
		err = db.WithTx(ctx, m.conn, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, db.MigrationSection(string(content), "Down")); err != nil {
				return fmt.Errorf("rollback %s: %w", version, err)
			}
			_, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, version)
			return err
		})
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Status prints one line per migration file.
func (m *migrator) Status(ctx context.Context, files []migrationFile) error {
	_, done, err := m.applied(ctx)
	if err != nil {
		return err
	}
	for _, f := range files {
		if t, ok := done[f.Version]; ok {
			fmt.Fprintf(m.out, "applied  %s  %s\n", f.Version, t.UTC().Format(time.RFC3339))
		} else {
			fmt.Fprintf(m.out, "pending  %s\n", f.Version)
		}
	}
	return nil
}
