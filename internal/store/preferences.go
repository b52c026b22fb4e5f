package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/pokestock/internal/model"
)

// GetPreferences returns the user's saved preferences, or the defaults.
func GetPreferences(ctx context.Context, db *sql.DB, userID int64) (model.Preferences, error) {
	p := model.DefaultPreferences()
	err := db.QueryRowContext(ctx,
		`SELECT theme FROM preferences WHERE user_id = ?`, userID,
	).Scan(&p.Theme)
	if err == sql.ErrNoRows {
		return model.DefaultPreferences(), nil
	}
	if err != nil {
		return model.DefaultPreferences(), fmt.Errorf("getting preferences: %w", err)
	}
	return p, nil
}

// SavePreferences upserts the user's preferences.
func SavePreferences(ctx context.Context, db *sql.DB, userID int64, p model.Preferences) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO preferences (user_id, theme) VALUES (?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET theme = excluded.theme`,
		userID, p.Theme,
	)
	if err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}
