package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"romshelf/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string

	schemaOnce sync.Once
	schemaErr  error
}

// Open connects to the catalog database. The schema is not created here;
// it materializes lazily on first use so the store self-heals when pointed
// at an empty or freshly deleted database file.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath connects to the catalog database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// ensure creates the schema if it does not exist yet. Every public
// operation calls this first, which is what makes an uninitialized store
// answer queries with empty results instead of "no such table" errors.
func (s *Store) ensure(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			s.schemaErr = fmt.Errorf("create schema: %w", err)
		}
	})
	return s.schemaErr
}
