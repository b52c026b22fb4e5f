package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// GetJWTSecret returns the signing key, generating and storing one on first use.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return getOrInitSetting(ctx, db, "jwt_secret", hex.EncodeToString(buf))
}

// getOrInitSetting stores candidate under key unless a value exists, then
// returns whichever value is persisted. INSERT OR IGNORE + re-SELECT keeps
// concurrent first starts from disagreeing.
func getOrInitSetting(ctx context.Context, db *sql.DB, key, candidate string) (string, error) {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		key, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	var value string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}

	return value, nil
}
