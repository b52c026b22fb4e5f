package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/pokestock/internal/model"
)

// CreateLoginCode stores the hash of a single-use sign-in token.
func CreateLoginCode(ctx context.Context, db *sql.DB, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO login_codes (token_hash, user_id, expires_at) VALUES (?, ?, ?)`,
		tokenHash, userID, expiresAt.UTC().Format(sqliteTime),
	)
	if err != nil {
		return fmt.Errorf("creating login code: %w", err)
	}
	return nil
}

// ConsumeLoginCode marks a sign-in token as used and returns its user.
// Unknown, expired and already used tokens return model.ErrNotFound.
func ConsumeLoginCode(ctx context.Context, db *sql.DB, tokenHash string, now time.Time) (int64, error) {
	var userID int64
	err := db.QueryRowContext(ctx,
		`UPDATE login_codes SET used_at = ?
		 WHERE token_hash = ? AND used_at IS NULL AND expires_at > ?
		 RETURNING user_id`,
		now.UTC().Format(sqliteTime), tokenHash, now.UTC().Format(sqliteTime),
	).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, model.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("consuming login code: %w", err)
	}
	return userID, nil
}
