package database

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

// NewMemory opens an in-memory database with all migrations applied. Used by
// tests; the single-connection cap keeps every query on the same in-memory
// instance.
func NewMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return nil, fmt.Errorf("failed to run goose migrations: %w", err)
	}

	return db, nil
}
