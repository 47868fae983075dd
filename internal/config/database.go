package config

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SetupDatabase opens the embedded SQLite database used when the store
// backend is "sqlite". Foreign keys are enforced so registrations cannot
// reference a deleted event.
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_fk=1", cfg.Store.SQLitePath)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; keep the pool at one connection so
	// concurrent workflow calls queue instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return db, nil
}
