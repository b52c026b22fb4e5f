package model

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// User is an account that owns cards.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasPassword reports whether the user can sign in with a password.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// NormalizeEmail trims and lowercases an address and checks its syntax.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("invalid email address")
	}
	return email, nil
}

// Themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Preferences holds per-user presentation settings.
type Preferences struct {
	Theme string `json:"theme"`
}

// DefaultPreferences is used until the user saves their own.
func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeDark}
}

// ValidTheme reports whether theme is a known theme name.
func ValidTheme(theme string) bool {
	return theme == ThemeDark || theme == ThemeLight
}
