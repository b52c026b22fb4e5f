package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// The applied count is tracked in PRAGMA user_version. Append new migrations at the end.
var migrations = []string{
	// Migration 1: dashboard range queries filter by owner and creation time.
	`CREATE INDEX IF NOT EXISTS idx_cards_owner_created ON cards(owner_id, created_at)`,
	`DROP INDEX IF EXISTS idx_cards_owner`,
}

// Migrate ensures the schema and applies pending migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
		if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
	}

	return nil
}
