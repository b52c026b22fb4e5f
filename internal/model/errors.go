package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")

	// ErrSessionExpired is returned when the session is missing, expired, or revoked.
	ErrSessionExpired = errors.New("session expired")
)

// ValidationError rejects a draft before it reaches the store.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}
