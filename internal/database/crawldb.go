package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/namesweep/namesweep/internal/model"
)

// DBFileName is the SQLite file created inside the database directory.
const DBFileName = "namesweep.db"

// CrawlDB stores lookup outcomes and discovered names in SQLite.
type CrawlDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB inside dbDir.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite supports a single writer; funnel everything through one
	// connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per completed lookup; re-fetches of a prefix overwrite.
	CREATE TABLE IF NOT EXISTS queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		prefix TEXT NOT NULL UNIQUE,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		status_code INTEGER,
		result_count INTEGER,
		truncated INTEGER,
		attempts INTEGER,
		duration_ms INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_queries_prefix ON queries(prefix);
	CREATE INDEX IF NOT EXISTS idx_queries_timestamp ON queries(timestamp);

	-- Discovered names; first_seen and the prefix that surfaced them.
	CREATE TABLE IF NOT EXISTS names (
		name TEXT PRIMARY KEY,
		source_prefix TEXT NOT NULL,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_names_source ON names(source_prefix);

	-- Run-level counters for export.
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// RecordQuery upserts the outcome of one lookup.
func (cdb *CrawlDB) RecordQuery(ctx context.Context, res *model.QueryResult) error {
	query := `
	INSERT INTO queries (prefix, status_code, result_count, truncated, attempts, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(prefix) DO UPDATE SET
		timestamp = CURRENT_TIMESTAMP,
		status_code = excluded.status_code,
		result_count = excluded.result_count,
		truncated = excluded.truncated,
		attempts = excluded.attempts,
		duration_ms = excluded.duration_ms`

	truncated := 0
	if res.Truncated {
		truncated = 1
	}
	_, err := cdb.db.ExecContext(ctx, query,
		res.Prefix, res.StatusCode, len(res.Names), truncated,
		res.Attempts, res.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record query %q: %w", res.Prefix, err)
	}
	return nil
}

// RecordNames inserts names discovered under sourcePrefix, keeping the
// earliest sighting on conflict.
func (cdb *CrawlDB) RecordNames(ctx context.Context, sourcePrefix string, names []string) error {
	if len(names) == 0 {
		return nil
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin names transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO names (name, source_prefix) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare names insert: %w", err)
	}
	defer stmt.Close()

	for _, name := range names {
		if _, err := stmt.ExecContext(ctx, name, sourcePrefix); err != nil {
			return fmt.Errorf("insert name %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit names: %w", err)
	}
	return nil
}

// Names returns every stored name in ascending order.
func (cdb *CrawlDB) Names(ctx context.Context) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT name FROM names ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate names: %w", err)
	}
	return names, nil
}

// NameCount returns the number of stored names.
func (cdb *CrawlDB) NameCount(ctx context.Context) (int, error) {
	var count int
	err := cdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM names`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count names: %w", err)
	}
	return count, nil
}

// QueryCount returns the number of logged lookups.
func (cdb *CrawlDB) QueryCount(ctx context.Context) (int, error) {
	var count int
	err := cdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count queries: %w", err)
	}
	return count, nil
}

// SetMeta stores a run-level key/value pair, overwriting any previous
// value.
func (cdb *CrawlDB) SetMeta(ctx context.Context, key, value string) error {
	_, err := cdb.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set meta %q: %w", key, err)
	}
	return nil
}

// GetMeta returns the stored value for key, or empty string when the
// key is absent.
func (cdb *CrawlDB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := cdb.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get meta %q: %w", key, err)
	}
	return value, nil
}
