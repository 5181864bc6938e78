// Package sqlite implements the authoritative relational store for devlog
// using modernc.org/sqlite (CGO-free). A single open connection in WAL mode
// serialises writes; that transaction boundary is the only hard mutual
// exclusion in the system.
package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/devlog-ai/devlog/internal/storage"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// Compile-time assertion that *Store satisfies the full storage contract.
var _ storage.Store = (*Store)(nil)

// Open opens (creating if necessary) a SQLite database at dsn, configures
// WAL mode, and brings the schema up to date via ordered migrations.
//
// When migrations cannot run, and only when the database holds no user
// tables at all, Open falls back to creating the schema directly. A
// non-empty database with a mismatched schema is never patched silently.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load;
	// WAL mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s failed: %w", pragma, err)
		}
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// migrate applies pending migrations, falling back to direct schema creation
// for a completely fresh database.
func (s *Store) migrate() error {
	files, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("sqlite: failed to open embedded migrations: %w", err)
	}

	mgr, mgrErr := storage.NewMigrationManager(s.db, files)
	if mgrErr == nil {
		if upErr := mgr.Up(); upErr == nil {
			return nil
		} else {
			mgrErr = upErr
		}
	}

	empty, emptyErr := s.isEmpty()
	if emptyErr != nil {
		return fmt.Errorf("sqlite: migration failed (%v) and schema state is unknown: %w", mgrErr, emptyErr)
	}
	if !empty {
		return fmt.Errorf("sqlite: failed to migrate non-empty database: %w", mgrErr)
	}

	log.Printf("sqlite: migrations unavailable (%v), creating schema directly for fresh database", mgrErr)
	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("sqlite: failed to create schema: %w", err)
	}
	return nil
}

// isEmpty reports whether the database contains no user tables beyond the
// migration bookkeeping table.
func (s *Store) isEmpty() (bool, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		  AND name != 'schema_migrations'
	`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// GetDB returns the underlying database connection. Used to share the
// connection with the co-located vector index.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
