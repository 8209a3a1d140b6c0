package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens the sqlite database at path. Use ":memory:" for a
// throwaway database. A single connection is kept so in-memory databases
// are shared by every caller and writes never contend for the file lock.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := setPragmaValues(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to configure sqlite database: %w", err)
	}
	return db, nil
}

func setPragmaValues(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = normal",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
