// Package db stores analysis runs and per-frame crater results in SQLite
// and manages the schema through versioned migrations.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB

	// Path is the database file path, kept for admin tooling labels and
	// backups.
	Path string
}

// OpenDB opens (or creates) the SQLite database at path and applies the
// connection pragmas. It does not touch the schema; migrations own that.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return &DB{DB: sqlDB, Path: path}, nil
}

// OpenDBWithMigrationCheck opens the database and verifies the schema is at
// the latest bundled migration version, refusing to proceed when it is
// behind. skipCheck bypasses the verification for tooling that manages the
// schema itself.
func OpenDBWithMigrationCheck(path string, skipCheck bool) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if skipCheck {
		return db, nil
	}

	migrations, err := MigrationsFS()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	if _, err := db.CheckAndPromptMigrations(migrations); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
