// Package dbtest opens a throwaway Postgres schema for integration tests.
//
// Tests using it are skipped unless TEST_DB_URL points at a database the
// caller may create schemas in. TEST_DB_DRIVER selects "postgres" (default)
// or "pgx".
package dbtest

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"bookstore-be/internal/config"
	"bookstore-be/internal/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	envURL    = "TEST_DB_URL"
	envDriver = "TEST_DB_DRIVER"
)

// Config builds the connection settings from the environment and skips the
// test when no database is configured.
func Config(t testing.TB) *config.Config {
	t.Helper()

	dsn := os.Getenv(envURL)
	if dsn == "" {
		t.Skipf("%s not set, skipping Postgres integration test", envURL)
	}
	return &config.Config{DBURL: dsn, DBDriver: os.Getenv(envDriver)}
}

// Open creates a fresh schema, applies the init migration to it and returns a
// pool whose search_path points there. The schema is dropped on cleanup.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	cfg := Config(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := db.NewDatabase(cfg)
	require.NoError(t, err, "error connecting to DB in test setup")

	schema := "it_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.ExecContext(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = admin.ExecContext(context.Background(), "DROP SCHEMA IF EXISTS "+schema+" CASCADE")
		admin.Close()
	})

	scoped := *cfg
	scoped.DBURL = withSearchPath(cfg.DBURL, schema)
	conn, err := db.NewDatabase(&scoped)
	require.NoError(t, err, "error connecting to test schema")
	t.Cleanup(func() { conn.Close() })

	content, err := os.ReadFile(initMigration())
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, db.MigrationSection(string(content), "Up"))
	require.NoError(t, err, "apply init migration")

	return conn
}

// withSearchPath adds search_path as a startup parameter. Both lib/pq and pgx
// forward unknown DSN keys to the server as runtime parameters.
func withSearchPath(dsn, schema string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err == nil {
			q := u.Query()
			q.Set("search_path", schema)
			u.RawQuery = q.Encode()
			return u.String()
		}
	}
	return dsn + " search_path=" + schema
}

func initMigration() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations", "0001_init.sql")
}
