package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const (
	// TimestampLayout is the ISO-8601 form used for every timestamp column.
	// Fixed width, so text ordering matches time ordering.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// Store is the process-wide handle to the local database.
// Open it once at startup, pass it to consumers and Close it on exit.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// OpenOptions holds options for opening a database
type OpenOptions struct {
	BusyTimeout time.Duration    // How long a locked database is retried (default 5s)
	Now         func() time.Time // Clock used for write timestamps (default time.Now)
}

// Open opens or creates a SQLite database at the given path with default options
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, nil)
}

// OpenWithOptions opens or creates a SQLite database with custom options
func OpenWithOptions(path string, opts *OpenOptions) (*Store, error) {
	if opts == nil {
		opts = &OpenOptions{}
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	ms := opts.BusyTimeout.Milliseconds()
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", path, ms)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One handle, one connection: all access is sequential
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db, now: opts.Now}

	if err := store.Initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Initialize makes sure every table exists. It is safe to call on every
// start and never drops data.
func (s *Store) Initialize() error {
	if err := s.migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for auxiliary tables
// (e.g. the directions cache)
func (s *Store) DB() *sql.DB {
	return s.db
}

// SQLiteVersion returns the SQLite version string
func SQLiteVersion() string {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return ""
	}
	defer db.Close()

	var version string
	err = db.QueryRow("SELECT sqlite_version()").Scan(&version)
	if err != nil {
		return ""
	}
	return version
}

// CheckIntegrity runs PRAGMA integrity_check on the database
func (s *Store) CheckIntegrity() error {
	var result string
	err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	return nil
}

// migrate brings the database up to the newest entry in migrations. Each
// step runs in its own transaction together with its version row, so a
// failed step leaves the previous version intact.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(versionTable); err != nil {
		return fmt.Errorf("failed to create version table: %w", err)
	}

	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	for i, stmt := range migrations {
		step := i + 1
		if step <= version {
			continue
		}
		err := s.Transaction(func(tx *sql.Tx) error {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to apply schema v%d: %w", step, err)
			}
			_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", step)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// getSchemaVersion returns the highest applied migration, 0 for a new file
func (s *Store) getSchemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Transaction runs fn inside a transaction, committing only when fn
// returns nil
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// timestamp returns the current write time in TimestampLayout
func (s *Store) timestamp() string {
	return s.now().UTC().Format(TimestampLayout)
}

// ClearAll empties all five record tables. Irreversible.
func (s *Store) ClearAll() error {
	err := s.Transaction(func(tx *sql.Tx) error {
		for _, kind := range Kinds {
			if _, err := tx.Exec("DELETE FROM " + kind.Table()); err != nil {
				return err
			}
		}
		return nil
	})
	return persistErr("clear", "all", err)
}
